// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-ovpnas.
//
// go-ovpnas is dual-licensed under AGPL-3.0 and a Commercial License.

// Package ovpnas is a client SDK for the OpenVPN Access Server XML-RPC
// management interface. A Client owns one authenticated transport session
// and exposes the user, group and server operations on top of it, with
// server faults translated into a typed error taxonomy.
package ovpnas

import (
	"time"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// EndpointURL is the XML-RPC endpoint, usually https://<host>/RPC2/.
	EndpointURL string

	// Username and Password authenticate an admin user via basic auth.
	Username string
	Password string

	// AllowUntrusted disables certificate verification. Leave false in
	// production; a forged certificate otherwise goes unnoticed.
	AllowUntrusted bool

	// RequestTimeout bounds each RPC round trip (default: 30s).
	RequestTimeout time.Duration

	// RateLimit caps outgoing calls per second. Zero disables limiting.
	RateLimit float64

	// Retry is the opt-in policy applied around read-only operations.
	Retry *RetryConfig

	// Logger receives SDK diagnostics. Nil disables logging.
	Logger Logger
}

// Client is the entry point of the SDK. It owns a single transport
// session shared by all namespaces, so calls through one Client are
// issued one at a time; use independent Clients for concurrency.
type Client struct {
	rpc *RPCClient

	// Users, Groups and Server expose the domain operations.
	Users  *Users
	Groups *Groups
	Server *Server
}

// NewClient creates a Client from a full configuration.
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, ErrInvalidConfig
	}
	if err := validateEndpoint(config.EndpointURL, config.AllowUntrusted); err != nil {
		return nil, err
	}
	if err := validateCredentials(config.Username, config.Password); err != nil {
		return nil, err
	}

	rpc, err := newRPCClient(config)
	if err != nil {
		return nil, err
	}

	ops := profileOps{rpc: rpc, retry: config.Retry, logger: rpc.logger}
	return &Client{
		rpc:    rpc,
		Users:  &Users{profileOps: ops},
		Groups: &Groups{profileOps: ops},
		Server: &Server{rpc: rpc, logger: rpc.logger},
	}, nil
}

// FromArgs creates a Client from an endpoint URL and credentials. The
// secure default validates the server certificate; set allowUntrusted
// only against servers whose self-signed certificate is expected.
func FromArgs(endpointURL, username, password string, allowUntrusted bool) (*Client, error) {
	return NewClient(&ClientConfig{
		EndpointURL:    endpointURL,
		Username:       username,
		Password:       password,
		AllowUntrusted: allowUntrusted,
	})
}

// Invoke issues a raw RPC call through the client's session. It is the
// escape hatch for server methods the namespaces do not cover; results
// come back exactly as decoded from the wire.
func (c *Client) Invoke(method string, args ...any) (any, error) {
	return c.rpc.Invoke(method, args...)
}

// Endpoint returns a copy of the endpoint this client talks to.
func (c *Client) Endpoint() Endpoint {
	return c.rpc.Endpoint()
}

// Close releases the underlying session. The client is unusable after.
func (c *Client) Close() error {
	return c.rpc.Close()
}
