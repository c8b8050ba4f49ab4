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

// Package retry runs API calls with exponential backoff. It is shared by
// the hosting-service client and the GitHub release client so both retry
// the same failures the same way.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sirseerhq/sirseer-publish/internal/apierror"
	puberrors "github.com/sirseerhq/sirseer-publish/internal/errors"
	"github.com/sirseerhq/sirseer-publish/internal/logging"
)

// Config configures the retry behavior for API calls
type Config struct {
	// MaxRetries is the maximum number of retry attempts
	MaxRetries int
	// InitialBackoff is the initial backoff duration
	InitialBackoff time.Duration
	// MaxBackoff is the maximum backoff duration
	MaxBackoff time.Duration
	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64
}

// DefaultConfig returns the default retry configuration
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Retrier retries operations that fail with transient errors.
type Retrier struct {
	config    *Config
	inspector apierror.Inspector
	logger    *log.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// New creates a Retrier. A nil config uses DefaultConfig.
func New(config *Config, logger *log.Logger) *Retrier {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BackoffMultiplier <= 0 {
		config.BackoffMultiplier = 2.0
	}
	return &Retrier{
		config:    config,
		inspector: apierror.NewInspector(),
		logger:    logging.OrDiscard(logger),
		sleep:     sleepContext,
	}
}

// Do calls fn until it succeeds, fails with a permanent error, the
// context is done, or the retries are used up. op names the call in logs.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		// Don't retry on non-retryable errors
		if !r.ShouldRetry(err) {
			return err
		}

		// Don't retry if context is cancelled
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt == r.config.MaxRetries {
			break
		}

		backoff := r.calculateBackoff(attempt)
		if r.inspector.IsRateLimitError(err) || errors.Is(err, puberrors.ErrRateLimit) {
			r.logger.Warn("Rate limit hit, waiting before retry",
				"op", op, "wait", backoff, "attempt", attempt+1, "max", r.config.MaxRetries)
		} else {
			r.logger.Warn("Transient error, retrying",
				"op", op, "wait", backoff, "attempt", attempt+1, "max", r.config.MaxRetries, "error", err)
		}

		if err := r.sleep(ctx, backoff); err != nil {
			return err
		}
	}

	if r.config.MaxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("failed after %d retries: %w", r.config.MaxRetries, lastErr)
}

// ShouldRetry determines if an error is retryable
func (r *Retrier) ShouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, puberrors.ErrRateLimit) || errors.Is(err, puberrors.ErrNetworkFailure) {
		return true
	}
	// Auth and not-found errors are permanent.
	if r.inspector.IsAuthError(err) || r.inspector.IsNotFoundError(err) {
		return false
	}
	return r.inspector.IsTransient(err)
}

// calculateBackoff calculates the backoff duration for the given attempt
func (r *Retrier) calculateBackoff(attempt int) time.Duration {
	// Calculate exponential backoff
	backoff := float64(r.config.InitialBackoff) * math.Pow(r.config.BackoffMultiplier, float64(attempt))

	// Apply max backoff limit
	if r.config.MaxBackoff > 0 && backoff > float64(r.config.MaxBackoff) {
		backoff = float64(r.config.MaxBackoff)
	}

	// Add jitter (±10%)
	jitter := backoff * 0.1 * (2*float64(time.Now().UnixNano()%100)/100 - 1)
	backoff += jitter

	return time.Duration(backoff)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
