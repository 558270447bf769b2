// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-ovpnas.
//
// go-ovpnas is dual-licensed under AGPL-3.0 and a Commercial License.

package ovpnas

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/kolo/xmlrpc"
)

// faultRule matches a raw server fault against a classified error kind.
// A zero code matches any code; substrings must all be contained in the
// fault message, compared case-insensitively. Access Server fault messages
// are free text rather than a stable enum, so message matching is
// best-effort by design.
type faultRule struct {
	code       int
	substrings []string
	kind       error
}

// faultTable is consulted top to bottom; the first matching rule wins.
// Code-based rules are listed before message-only rules because fault codes
// are more stable across server versions than fault strings. The table is
// seeded from observed Access Server behavior and is expected to grow as
// new faults are seen in the field.
var faultTable = []faultRule{
	{code: 8002, kind: ErrParameterCount},
	{code: 9007, kind: ErrAuthenticationFailed},
	{code: 9000, substrings: []string{"certdb: username", "not found"}, kind: ErrProfileNotFound},
	{code: 9000, substrings: []string{"exceptions.valueerror"}, kind: ErrInvalidPropertyValue},
	{code: 9000, substrings: []string{"xmlrpc: internal error"}, kind: ErrInternalServer},
	{code: 9000, substrings: []string{"function not found"}, kind: ErrMethodNotFound},
	{substrings: []string{"already exists"}, kind: ErrProfileExists},
	{substrings: []string{"permission denied"}, kind: ErrPermissionDenied},
	{substrings: []string{"access denied"}, kind: ErrPermissionDenied},
	{substrings: []string{"not found"}, kind: ErrProfileNotFound},
}

func (r faultRule) matches(code int, message string) bool {
	if r.code != 0 && r.code != code {
		return false
	}
	lower := strings.ToLower(message)
	for _, s := range r.substrings {
		if !strings.Contains(lower, s) {
			return false
		}
	}
	return true
}

// classifyFault maps a raw fault code and message to one of the sentinel
// error kinds. Unmatched faults classify as ErrUnknownFault. The function
// is pure so the whole table is unit-testable without a server.
func classifyFault(code int, message string) error {
	for _, rule := range faultTable {
		if rule.matches(code, message) {
			return rule.kind
		}
	}
	return ErrUnknownFault
}

// newServerFault classifies a raw fault and wraps it with its diagnostics.
func newServerFault(code int, message string) *ServerFault {
	return &ServerFault{
		Code:    code,
		Message: message,
		kind:    classifyFault(code, message),
	}
}

// The XML-RPC codec routes responses through net/rpc, which flattens fault
// errors into strings on some code paths. These patterns recover the code
// and message from the two formats the codec has used.
var (
	faultPattern       = regexp.MustCompile(`Fault\((-?\d+)\):\s*(.*)`)
	legacyFaultPattern = regexp.MustCompile(`error:\s*(.*),\s*code:\s*(-?\d+)`)
)

// parseFault extracts the fault code and message from a codec error.
// Returns ok=false when the error is not a server fault (e.g. a transport
// failure), in which case the caller treats it as a connection error.
func parseFault(err error) (code int, message string, ok bool) {
	if err == nil {
		return 0, "", false
	}

	var fe xmlrpc.FaultError
	if errors.As(err, &fe) {
		return fe.Code, fe.String, true
	}

	text := err.Error()
	if m := faultPattern.FindStringSubmatch(text); m != nil {
		code, _ = strconv.Atoi(m[1])
		return code, m[2], true
	}
	if m := legacyFaultPattern.FindStringSubmatch(text); m != nil {
		code, _ = strconv.Atoi(m[2])
		return code, m[1], true
	}

	return 0, "", false
}
