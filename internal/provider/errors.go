package provider

import (
	"errors"
	"fmt"
	"strings"
)

// Provider error codes the bridge classifies. The wire-level codes are an
// external contract and must be matched verbatim.
//
//	email_not_confirmed   -> sign-in blocked until the email is confirmed
//	user_already_exists   -> duplicate sign-up
//	otp_expired           -> one-time code no longer valid
const (
	codeEmailNotConfirmed = "email_not_confirmed"
	codeUserAlreadyExists = "user_already_exists"
	codeOTPExpired        = "otp_expired"
)

// APIError is a structured error returned by the auth provider.
type APIError struct {
	Status    int
	ErrorCode string `json:"error_code"`
	Message   string `json:"msg"`

	// legacy error shape, still emitted by some endpoints
	LegacyError string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Description != "":
		return e.Description
	case e.LegacyError != "":
		return e.LegacyError
	default:
		return fmt.Sprintf("auth provider returned status %d", e.Status)
	}
}

// IsEmailNotConfirmed reports whether err is the provider refusing a
// password grant because the address has not been confirmed yet.
func IsEmailNotConfirmed(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.ErrorCode == codeEmailNotConfirmed {
		return true
	}

	// older gateway versions carry only a message
	return strings.Contains(strings.ToLower(apiErr.Error()), "not confirmed")
}

// IsUserAlreadyExists reports whether err is a duplicate sign-up.
func IsUserAlreadyExists(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == codeUserAlreadyExists
}

// IsOTPExpired reports whether err is an expired one-time code.
func IsOTPExpired(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == codeOTPExpired
}
