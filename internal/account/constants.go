// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package account

import "time"

// # Token Constraints

const (
	// AccessTokenTTL is the duration a portal JWT access token remains valid.
	// We keep it short (15m) to minimize the impact of a leaked token.
	AccessTokenTTL = 15 * time.Minute
)

// # Field Identifiers (for validation errors)

const (
	FieldUserName     = "userName"
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldFirstName    = "firstName"
	FieldLastName     = "lastName"
	FieldMobileNumber = "mobileNumber"
	FieldAccountType  = "accountType"
	FieldOTP          = "otp"
	FieldAccessToken  = "access_token"
	FieldTokenType    = "token_type"
	FieldExpiresIn    = "expires_in"
	FieldMessage      = "message"
)
