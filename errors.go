// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-ovpnas.
//
// go-ovpnas is dual-licensed under AGPL-3.0 and a Commercial License.

package ovpnas

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionFailed is returned when the Access Server endpoint is
	// unreachable (DNS, TLS, connection refused, timeout). It is always
	// fatal to the current call; no retry happens below the namespace layer.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrAuthenticationFailed is returned when the server rejects the
	// configured credentials (fault code 9007).
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrPermissionDenied is returned when the authenticated user is not
	// authorized for the requested operation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrProfileNotFound is returned when the target user or group profile
	// does not exist on the server.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileExists is returned when creating a user or group that
	// already exists.
	ErrProfileExists = errors.New("profile already exists")

	// ErrInvalidPropertyValue is returned when the server rejects a profile
	// property value.
	ErrInvalidPropertyValue = errors.New("invalid profile property value")

	// ErrUnknownFault is returned for server faults not covered by the
	// classification table. The original fault code and message are
	// preserved on the wrapping ServerFault.
	ErrUnknownFault = errors.New("unknown server fault")

	// ErrInvalidConfig is returned when the client configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrPropertyNotSet is returned by Profile.Prop when the property is
	// absent and no default is supplied.
	ErrPropertyNotSet = errors.New("property not set")

	// ErrParameterCount is returned when the server reports a parameter
	// count mismatch for an RPC method (fault code 8002).
	ErrParameterCount = errors.New("incorrect number of parameters")

	// ErrInternalServer is returned when the server reports an internal
	// XML-RPC error.
	ErrInternalServer = errors.New("internal server error")

	// ErrMethodNotFound is returned when the invoked method does not exist
	// on the server.
	ErrMethodNotFound = errors.New("method not found")

	// ErrLocalAuthDisabled is returned when a password operation requires
	// local authentication and the server has it disabled.
	ErrLocalAuthDisabled = errors.New("local authentication disabled")

	// ErrPasswordComplexity is returned when a password does not meet the
	// Access Server complexity requirements.
	ErrPasswordComplexity = errors.New("password does not meet complexity requirements")

	// ErrPasswordIncorrect is returned when the current password supplied
	// for a password change is wrong.
	ErrPasswordIncorrect = errors.New("current password incorrect")

	// ErrClientExists is returned when creating a client record for a user
	// that already has one.
	ErrClientExists = errors.New("client record already exists")

	// ErrPasswordGeneration is returned when a suitably complex random
	// password could not be generated within the attempt budget.
	ErrPasswordGeneration = errors.New("password generation failed")
)

// ServerFault is a classified server-side RPC fault. It wraps one of the
// sentinel error kinds above so callers can match with errors.Is, while
// keeping the verbatim fault code and message for diagnostics. Use
// errors.As to recover the raw fault from any namespace operation error.
type ServerFault struct {
	// Code is the numeric fault code reported by the server.
	Code int

	// Message is the free-text fault string, verbatim.
	Message string

	kind error
}

func (f *ServerFault) Error() string {
	return fmt.Sprintf("%v (server fault %d: %s)", f.kind, f.Code, f.Message)
}

// Unwrap returns the classified error kind.
func (f *ServerFault) Unwrap() error {
	return f.kind
}

// Kind returns the sentinel error this fault was classified as.
func (f *ServerFault) Kind() error {
	return f.kind
}
