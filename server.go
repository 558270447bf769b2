// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-ovpnas.
//
// go-ovpnas is dual-licensed under AGPL-3.0 and a Commercial License.

package ovpnas

import (
	"fmt"
	"time"
)

// Server groups read-only operations against the Access Server's own
// services. Do not construct it directly; use Client.Server.
type Server struct {
	rpc    *RPCClient
	logger Logger
}

// run_status timestamps come back like "Mon Jan 02 15:04:05 2006".
const restartTimeLayout = "Mon Jan 2 15:04:05 2006"

// Status describes the run state of the server's internal services.
type Status struct {
	// LastRestarted is when the internal services last restarted.
	LastRestarted time.Time

	// Services maps each internal service (api, auth, web, openvpn_0, ...)
	// to "on" or "off".
	Services map[string]string

	// Errors holds per-service error details, empty when healthy.
	Errors map[string]any
}

// Version returns the full Access Server version string.
func (s *Server) Version() (string, error) {
	raw, err := s.rpc.Invoke(methodGetASLongVersion)
	if err != nil {
		return "", err
	}
	version, ok := asString(raw)
	if !ok {
		return "", fmt.Errorf("%w: unexpected result shape for %s", ErrUnknownFault, methodGetASLongVersion)
	}
	return version, nil
}

// Status reports the run status of the server's internal services.
func (s *Server) Status() (*Status, error) {
	raw, err := s.rpc.Invoke(methodRunStatus)
	if err != nil {
		return nil, err
	}
	m, ok := asMap(raw)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result shape for %s", ErrUnknownFault, methodRunStatus)
	}

	status := &Status{
		Services: map[string]string{},
		Errors:   map[string]any{},
	}
	if ts, ok := asString(m["last_restarted"]); ok {
		parsed, err := time.Parse(restartTimeLayout, ts)
		if err == nil {
			status.LastRestarted = parsed
		}
	}
	if services, ok := asMap(m["service_status"]); ok {
		for name, state := range services {
			if s, ok := asString(state); ok {
				status.Services[name] = s
			}
		}
	}
	if errs, ok := asMap(m["errors"]); ok {
		status.Errors = errs
	}
	return status, nil
}

// VPNSummary returns the number of clients currently connected.
func (s *Server) VPNSummary() (int, error) {
	raw, err := s.rpc.Invoke(methodGetVPNSummary)
	if err != nil {
		return 0, err
	}
	m, ok := asMap(raw)
	if !ok {
		return 0, fmt.Errorf("%w: unexpected result shape for %s", ErrUnknownFault, methodGetVPNSummary)
	}
	n, ok := asInt(m["n_clients"])
	if !ok {
		return 0, fmt.Errorf("%w: unexpected result shape for %s", ErrUnknownFault, methodGetVPNSummary)
	}
	return n, nil
}

// VPNStatus returns the per-daemon connection and routing breakdown as the
// server reports it: one entry per VPN daemon (openvpn_0, openvpn_1, ...),
// each carrying client_list and routing_table arrays with companion
// *_header index mappings. The shape is served as-is because it varies
// across server versions.
func (s *Server) VPNStatus() (map[string]any, error) {
	raw, err := s.rpc.Invoke(methodGetVPNStatus)
	if err != nil {
		return nil, err
	}
	m, ok := asMap(raw)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result shape for %s", ErrUnknownFault, methodGetVPNStatus)
	}
	return m, nil
}

// LocalAuthEnabled reports whether local authentication is enabled.
func (s *Server) LocalAuthEnabled() (bool, error) {
	raw, err := s.rpc.Invoke(methodLocalAuthEnabled)
	if err != nil {
		return false, err
	}
	enabled, ok := asBool(raw)
	if !ok {
		return false, fmt.Errorf("%w: unexpected result shape for %s", ErrUnknownFault, methodLocalAuthEnabled)
	}
	return enabled, nil
}

// ConfigQuery fetches server configuration entries. profile selects a
// named configuration profile ("" for the active one); keys restricts the
// entries returned (nil for all).
func (s *Server) ConfigQuery(profile string, keys []string) (map[string]any, error) {
	if keys == nil {
		keys = []string{}
	}
	raw, err := s.rpc.Invoke(methodConfigQuery, profile, keys)
	if err != nil {
		return nil, err
	}
	m, ok := asMap(raw)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result shape for %s", ErrUnknownFault, methodConfigQuery)
	}
	return m, nil
}
