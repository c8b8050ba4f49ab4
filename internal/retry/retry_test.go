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

package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sirseerhq/sirseer-publish/internal/apierror"
	puberrors "github.com/sirseerhq/sirseer-publish/internal/errors"
)

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:        maxRetries,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        10 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestDo(t *testing.T) {
	tests := []struct {
		name             string
		maxFailures      int
		maxRetries       int
		failureError     error
		expectError      bool
		expectedAttempts int
	}{
		{
			name:             "succeeds immediately",
			maxFailures:      0,
			maxRetries:       3,
			failureError:     errors.New("API rate limit exceeded"),
			expectedAttempts: 1,
		},
		{
			name:             "succeeds after one retry",
			maxFailures:      1,
			maxRetries:       3,
			failureError:     errors.New("API rate limit exceeded"),
			expectedAttempts: 2,
		},
		{
			name:             "succeeds after max retries",
			maxFailures:      3,
			maxRetries:       3,
			failureError:     &apierror.StatusError{StatusCode: 503},
			expectedAttempts: 4,
		},
		{
			name:             "fails after max retries exceeded",
			maxFailures:      5,
			maxRetries:       3,
			failureError:     fmt.Errorf("dial: %w", puberrors.ErrNetworkFailure),
			expectError:      true,
			expectedAttempts: 4,
		},
		{
			name:             "auth error is not retried",
			maxFailures:      5,
			maxRetries:       3,
			failureError:     &apierror.StatusError{StatusCode: 401},
			expectError:      true,
			expectedAttempts: 1,
		},
		{
			name:             "validation error is not retried",
			maxFailures:      5,
			maxRetries:       3,
			failureError:     &apierror.StatusError{StatusCode: 422, Message: "version exists"},
			expectError:      true,
			expectedAttempts: 1,
		},
		{
			name:             "retries disabled",
			maxFailures:      5,
			maxRetries:       0,
			failureError:     &apierror.StatusError{StatusCode: 502},
			expectError:      true,
			expectedAttempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			r := New(fastConfig(tt.maxRetries), nil)

			err := r.Do(context.Background(), "test", func(context.Context) error {
				attempts++
				if attempts <= tt.maxFailures {
					return tt.failureError
				}
				return nil
			})

			if tt.expectError && err == nil {
				t.Error("expected error but got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if attempts != tt.expectedAttempts {
				t.Errorf("expected %d attempts, got %d", tt.expectedAttempts, attempts)
			}
			if tt.expectError && !errors.Is(err, tt.failureError) {
				t.Errorf("expected wrapped %v, got %v", tt.failureError, err)
			}
		})
	}
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	r := New(&Config{MaxRetries: 5, InitialBackoff: time.Hour, MaxBackoff: time.Hour}, nil)
	r.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}

	attempts := 0
	err := r.Do(ctx, "test", func(context.Context) error {
		attempts++
		return &apierror.StatusError{StatusCode: 503}
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", attempts)
	}
}

func TestCalculateBackoff(t *testing.T) {
	r := New(&Config{
		MaxRetries:        5,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2.0,
	}, nil)

	tests := []struct {
		attempt int
		base    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{10, time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			got := r.calculateBackoff(tt.attempt)
			lower := time.Duration(float64(tt.base) * 0.9)
			upper := time.Duration(float64(tt.base) * 1.1)
			if got < lower || got > upper {
				t.Errorf("backoff %v outside [%v, %v]", got, lower, upper)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	r := New(nil, nil)

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit sentinel", fmt.Errorf("x: %w", puberrors.ErrRateLimit), true},
		{"network sentinel", fmt.Errorf("x: %w", puberrors.ErrNetworkFailure), true},
		{"connection refused", errors.New("dial tcp 127.0.0.1:1: connect: connection refused"), true},
		{"gateway timeout", &apierror.StatusError{StatusCode: 504}, true},
		{"too many requests", &apierror.StatusError{StatusCode: 429}, true},
		{"forbidden", &apierror.StatusError{StatusCode: 403}, false},
		{"not found", &apierror.StatusError{StatusCode: 404}, false},
		{"bad request", &apierror.StatusError{StatusCode: 400}, false},
		{"canceled", context.Canceled, false},
		{"plain", errors.New("something odd"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ShouldRetry(tt.err); got != tt.want {
				t.Errorf("ShouldRetry(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
