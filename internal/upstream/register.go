// Copyright (c) 2026 Castline. All rights reserved.
// Author: dev@castline.app

package upstream

import (
	"context"
	"net/url"
)

// # Agency Register Family
//
// Covers account lifecycle endpoints under /agencyRegister/v1.
//
// # Success Sentinel
//
// This family reports success as HTTP 200 with body `code: 200`. Callers must
// use [Result.CodeIs] with [constants.UpstreamCodeOK]. Do NOT reuse the 1000
// sentinel of the professionals-profile family here.

// RegisterPayload is the account-creation body forwarded to the backend.
type RegisterPayload struct {
	UserName     string `json:"userName"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	MobileNumber string `json:"mobileNumber"`
	AccountType  string `json:"accountType"`
}

// CreateAccount registers a new agency or professional account.
func (client *Client) CreateAccount(ctx context.Context, payload RegisterPayload) Result {
	return client.post(ctx, "/agencyRegister/v1/create", "", payload)
}

// GetAccount fetches an account by its id.
func (client *Client) GetAccount(ctx context.Context, token, accountID string) Result {
	return client.get(ctx, "/agencyRegister/v1/get/"+url.PathEscape(accountID), token, nil)
}

// UpdateAccount updates mutable account fields.
func (client *Client) UpdateAccount(ctx context.Context, token, accountID string, payload map[string]any) Result {
	return client.put(ctx, "/agencyRegister/v1/update/"+url.PathEscape(accountID), token, payload)
}

// DeleteAccount removes an account.
func (client *Client) DeleteAccount(ctx context.Context, token, accountID string) Result {
	return client.del(ctx, "/agencyRegister/v1/delete/"+url.PathEscape(accountID), token)
}

// SearchAccounts queries accounts by free-text term with pagination.
func (client *Client) SearchAccounts(ctx context.Context, token, term string, page, size int) Result {
	query := url.Values{}
	query.Set("searchTerm", term)
	query.Set("page", itoa(page))
	query.Set("size", itoa(size))
	return client.get(ctx, "/agencyRegister/v1/search", token, query)
}

// CheckEmail reports whether an email address is already registered.
func (client *Client) CheckEmail(ctx context.Context, email string) Result {
	query := url.Values{}
	query.Set("email", email)
	return client.get(ctx, "/agencyRegister/v1/checkEmail", "", query)
}

// CheckUserName reports whether a username is already taken.
func (client *Client) CheckUserName(ctx context.Context, userName string) Result {
	query := url.Values{}
	query.Set("userName", userName)
	return client.get(ctx, "/agencyRegister/v1/checkUserName", "", query)
}

// # Authentication

// LoginPayload carries credentials for an authentication attempt.
type LoginPayload struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// Login authenticates against the backend and, on success, yields the
// upstream bearer token plus the user identity inside the payload.
func (client *Client) Login(ctx context.Context, payload LoginPayload) Result {
	return client.post(ctx, "/agencyRegister/v1/login", "", payload)
}

// # One-Time Passwords

// SendOTP asks the backend to deliver a verification code to the given email.
func (client *Client) SendOTP(ctx context.Context, email string) Result {
	return client.post(ctx, "/agencyRegister/v1/sendOtp", "", map[string]string{"email": email})
}

// VerifyOTP submits a verification code for validation.
func (client *Client) VerifyOTP(ctx context.Context, email, code string) Result {
	return client.post(ctx, "/agencyRegister/v1/verifyOtp", "", map[string]string{
		"email": email,
		"otp":   code,
	})
}
