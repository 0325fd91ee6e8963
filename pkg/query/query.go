// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

// Package query parses multi-value URL query parameters for the portal's
// lookup endpoints (skill code filters, id lists).
package query

import (
	"strconv"
	"strings"
)

// IntSlice converts repeated query values into integers, silently skipping
// anything that does not parse. Lookup filters treat a malformed entry as
// absent rather than failing the whole request.
func IntSlice(vals []string) []int {
	var res []int
	for _, v := range vals {
		if i, err := strconv.Atoi(v); err == nil {
			res = append(res, i)
		}
	}
	return res
}

// StringSlice splits a comma-separated query value ("codes=act,mdl,vox")
// into trimmed entries, dropping empties so trailing commas are harmless.
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}
	var res []string
	for _, v := range strings.Split(val, ",") {
		clean := strings.TrimSpace(v)
		if clean != "" {
			res = append(res, clean)
		}
	}
	return res
}
