// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/castlinehq/castline-api/internal/platform/constants"
)

// CooldownStore tracks per-email OTP resend cooldowns.
//
// The gate exists to reject rapid resend requests before they reach the
// backend, mirroring the countdown the portal UI shows the user.
type CooldownStore interface {
	// Begin starts (or restarts) a cooldown window for the given email.
	Begin(ctx context.Context, email string, ttl time.Duration) error

	// Remaining returns how long the active cooldown for the email has left.
	// A zero duration means no cooldown is active and a resend may proceed.
	Remaining(ctx context.Context, email string) (time.Duration, error)
}

// RedisCooldownStore implements [CooldownStore] using Redis key TTLs.
type RedisCooldownStore struct {
	client *redis.Client
}

// NewCooldownStore creates a new Redis-backed [CooldownStore].
func NewCooldownStore(client *redis.Client) *RedisCooldownStore {
	return &RedisCooldownStore{client: client}
}

var _ CooldownStore = (*RedisCooldownStore)(nil)

/*
Begin starts a cooldown window keyed by email.

Parameters:
  - ctx: context.Context
  - email: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (store *RedisCooldownStore) Begin(ctx context.Context, email string, ttl time.Duration) error {

	// Use constants for key prefix
	key := fmt.Sprintf("%s%s", constants.RedisPrefixOTPCooldown, email)

	// The value is irrelevant; the key's TTL is the countdown.
	if err := store.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis_otp_cooldown_set_failed: %w", err)
	}

	return nil
}

/*
Remaining reports the time left on the email's cooldown window.

Description: Returns zero when no cooldown is active.

Parameters:
  - ctx: context.Context
  - email: string

Returns:
  - time.Duration: Remaining cooldown, zero if expired or absent
  - error: Connectivity errors
*/
func (store *RedisCooldownStore) Remaining(ctx context.Context, email string) (time.Duration, error) {

	// Use constants for key prefix
	key := fmt.Sprintf("%s%s", constants.RedisPrefixOTPCooldown, email)

	ttl, err := store.client.TTL(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis_otp_cooldown_ttl_failed: %w", err)
	}

	// TTL returns negative durations for missing keys and keys without expiry.
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
