// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-ovpnas.
//
// go-ovpnas is dual-licensed under AGPL-3.0 and a Commercial License.

package ovpnas

import (
	"fmt"
	"net/url"
	"strings"
)

// validateEndpoint checks that a URL is usable as an Access Server RPC
// endpoint: absolute, host present, no embedded userinfo (credentials
// travel in the Authorization header), no query or fragment. Plain http is
// tolerated only when the caller has opted out of certificate trust,
// which keeps the secure default while letting test servers be plain.
func validateEndpoint(rawurl string, allowUntrusted bool) error {
	if strings.TrimSpace(rawurl) == "" {
		return fmt.Errorf("%w: endpoint URL cannot be empty", ErrInvalidConfig)
	}
	parsed, err := url.Parse(rawurl)
	if err != nil {
		return fmt.Errorf("%w: endpoint URL: %v", ErrInvalidConfig, err)
	}
	switch parsed.Scheme {
	case "https":
	case "http":
		if !allowUntrusted {
			return fmt.Errorf(
				"%w: endpoint URL must be https unless untrusted connections are allowed",
				ErrInvalidConfig,
			)
		}
	default:
		return fmt.Errorf("%w: endpoint URL scheme must be https", ErrInvalidConfig)
	}
	if parsed.Hostname() == "" {
		return fmt.Errorf("%w: endpoint URL has no host", ErrInvalidConfig)
	}
	if parsed.User != nil {
		return fmt.Errorf("%w: endpoint URL must not embed credentials", ErrInvalidConfig)
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return fmt.Errorf("%w: endpoint URL must not carry a query or fragment", ErrInvalidConfig)
	}
	return nil
}

// validateCredentials checks username and password for basic auth use.
func validateCredentials(username, password string) error {
	if username == "" {
		return fmt.Errorf("%w: username cannot be empty", ErrInvalidConfig)
	}
	if strings.Contains(username, ":") {
		return fmt.Errorf("%w: username cannot contain ':'", ErrInvalidConfig)
	}
	if password == "" {
		return fmt.Errorf("%w: password cannot be empty", ErrInvalidConfig)
	}
	if strings.Contains(password, ":") {
		return fmt.Errorf("%w: password cannot contain ':'", ErrInvalidConfig)
	}
	return nil
}

// validateProfileName checks a username or group name argument.
func validateProfileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: profile name cannot be empty", ErrInvalidConfig)
	}
	return nil
}

// validateMethod checks an RPC method identifier. Whether the method
// exists is the server's call, not ours.
func validateMethod(method string) error {
	if strings.TrimSpace(method) == "" {
		return fmt.Errorf("%w: method name cannot be empty", ErrInvalidConfig)
	}
	return nil
}
