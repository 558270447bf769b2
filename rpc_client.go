// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-ovpnas.
//
// go-ovpnas is dual-licensed under AGPL-3.0 and a Commercial License.

package ovpnas

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/kolo/xmlrpc"
	"golang.org/x/time/rate"
)

// Endpoint identifies one Access Server XML-RPC interface together with the
// credentials used against it. It is created once at client construction
// and never mutated.
type Endpoint struct {
	URL            string
	Username       string
	Password       string
	AllowUntrusted bool
}

// RPCClient is the transport session: one authenticated connection handle
// to a single endpoint. Every namespace operation funnels through Invoke.
// The handle is not safe for concurrent invocation from multiple
// goroutines; callers needing parallelism create independent Clients.
type RPCClient struct {
	endpoint Endpoint
	xml      *xmlrpc.Client
	limiter  *rate.Limiter
	logger   Logger
}

// newRPCClient dials nothing up front; the underlying HTTP transport
// connects lazily on the first call.
func newRPCClient(config *ClientConfig) (*RPCClient, error) {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}
	if config.AllowUntrusted {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	timeout := 30 * time.Second
	if config.RequestTimeout > 0 {
		timeout = config.RequestTimeout
	}
	transport.ResponseHeaderTimeout = timeout
	transport.TLSHandshakeTimeout = timeout

	rt := &basicAuthTransport{
		username: config.Username,
		password: config.Password,
		base:     transport,
	}

	xml, err := xmlrpc.NewClient(config.EndpointURL, rt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}

	logger := config.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	return &RPCClient{
		endpoint: Endpoint{
			URL:            config.EndpointURL,
			Username:       config.Username,
			Password:       config.Password,
			AllowUntrusted: config.AllowUntrusted,
		},
		xml:     xml,
		limiter: limiter,
		logger:  logger,
	}, nil
}

// Invoke performs one raw RPC call and returns the decoded result exactly
// as received, with no domain interpretation. Server faults come back as a
// *ServerFault wrapping a classified error kind; transport failures wrap
// ErrConnectionFailed. Invoke blocks until the server responds or the
// transport timeout elapses; there is no cancellation primitive beyond
// that timeout, and no retry at this layer.
func (c *RPCClient) Invoke(method string, args ...any) (any, error) {
	if err := validateMethod(method); err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(context.Background()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
		}
	}

	callID := uuid.NewString()
	c.logger.Debug("rpc call",
		Field{Key: "id", Value: callID},
		Field{Key: "method", Value: method},
		Field{Key: "args", Value: len(args)},
	)

	var result any
	err := c.xml.Call(method, []any(args), &result)
	if err == nil {
		return result, nil
	}

	if code, message, ok := parseFault(err); ok {
		fault := newServerFault(code, message)
		c.logger.Debug("rpc fault",
			Field{Key: "id", Value: callID},
			Field{Key: "code", Value: code},
			Field{Key: "message", Value: message},
		)
		return nil, fault
	}

	if kind := classifyHTTPError(err); kind != nil {
		return nil, fmt.Errorf("%w: %s %v", kind, method, err)
	}

	c.logger.Debug("rpc transport error",
		Field{Key: "id", Value: callID},
		Field{Key: "error", Value: err.Error()},
	)
	return nil, fmt.Errorf("%w: %s: %v", ErrConnectionFailed, method, err)
}

// Endpoint returns a copy of the endpoint this session talks to.
func (c *RPCClient) Endpoint() Endpoint {
	return c.endpoint
}

// Close releases the underlying connection handle. The session cannot be
// reused afterwards; a new session requires a new Client.
func (c *RPCClient) Close() error {
	return c.xml.Close()
}

var (
	httpUnauthorizedPattern = regexp.MustCompile(`\b401\b`)
	httpForbiddenPattern    = regexp.MustCompile(`\b403\b`)
)

// classifyHTTPError recognizes HTTP-level rejections that arrive before an
// XML-RPC fault can be produced. The Access Server answers bad basic-auth
// credentials with a plain 401 and insufficient privileges with a 403;
// the codec reports either as a bad status code. Only errors that already
// failed fault parsing reach this point.
func classifyHTTPError(err error) error {
	text := err.Error()
	switch {
	case httpUnauthorizedPattern.MatchString(text):
		return ErrAuthenticationFailed
	case httpForbiddenPattern.MatchString(text):
		return ErrPermissionDenied
	default:
		return nil
	}
}

// basicAuthTransport attaches the endpoint credentials to every request.
type basicAuthTransport struct {
	username string
	password string
	base     http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return t.base.RoundTrip(req)
}
