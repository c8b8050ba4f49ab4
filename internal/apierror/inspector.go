// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Inspector provides methods to classify API errors.
type Inspector interface {
	// IsAuthError returns true if the request was rejected for its credentials.
	IsAuthError(err error) bool

	// IsNotFoundError returns true if the requested resource does not exist.
	IsNotFoundError(err error) bool

	// IsRateLimitError returns true if the service throttled the request.
	IsRateLimitError(err error) bool

	// IsNetworkError returns true if the request never got a usable response.
	IsNetworkError(err error) bool

	// IsTransient returns true if retrying the same request may succeed.
	IsTransient(err error) bool
}

// StatusError is a non-2xx response from an HTTP API.
type StatusError struct {
	StatusCode int
	Message    string
	Body       []byte
}

// Error returns a string representation of the StatusError.
func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		return fmt.Sprintf("api error (%d): %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("api error (%d): %s -- %s", e.StatusCode, msg, body)
}

// IsAuthError reports 401 and 403 responses.
func (e *StatusError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsNotFoundError reports 404 responses.
func (e *StatusError) IsNotFoundError() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsRateLimitError reports 429 responses.
func (e *StatusError) IsRateLimitError() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsTransient reports gateway failures and throttling.
func (e *StatusError) IsTransient() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// ChainInspector checks typed errors in the chain with errors.As before
// falling back to matching on the error text.
type ChainInspector struct{}

// NewInspector creates the default Inspector.
func NewInspector() Inspector {
	return &ChainInspector{}
}

// IsAuthError checks if the error is an authentication or authorization error.
func (i *ChainInspector) IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	var typed interface{ IsAuthError() bool }
	if errors.As(err, &typed) {
		return typed.IsAuthError()
	}
	return containsAny(err, "401", "403", "unauthorized", "forbidden", "bad credentials", "authentication")
}

// IsNotFoundError checks if the error is a not found error.
func (i *ChainInspector) IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var typed interface{ IsNotFoundError() bool }
	if errors.As(err, &typed) {
		return typed.IsNotFoundError()
	}
	return containsAny(err, "404", "not found", "could not resolve to a repository")
}

// IsRateLimitError checks if the error is a rate limit error.
func (i *ChainInspector) IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var typed interface{ IsRateLimitError() bool }
	if errors.As(err, &typed) {
		return typed.IsRateLimitError()
	}
	return containsAny(err, "rate limit", "429")
}

// IsNetworkError checks if the error is a network connectivity error.
func (i *ChainInspector) IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return false
	}
	return containsAny(err,
		"connection refused",
		"connection reset",
		"no such host",
		"timeout",
		"temporary failure",
		"dial tcp",
		"tls handshake",
		"network is unreachable",
		"eof")
}

// IsTransient checks if the error is worth retrying.
func (i *ChainInspector) IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var typed interface{ IsTransient() bool }
	if errors.As(err, &typed) {
		return typed.IsTransient()
	}
	return i.IsRateLimitError(err) || i.IsNetworkError(err)
}

func containsAny(err error, needles ...string) bool {
	errStr := strings.ToLower(err.Error())
	for _, n := range needles {
		if strings.Contains(errStr, n) {
			return true
		}
	}
	return false
}
