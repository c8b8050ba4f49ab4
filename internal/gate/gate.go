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

// Package gate decides whether a project version should be uploaded. It
// makes publishing idempotent: an existing version is skipped unless an
// overwrite was requested.
package gate

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/sirseerhq/sirseer-publish/internal/hub"
	"github.com/sirseerhq/sirseer-publish/internal/logging"
)

// Action is the outcome of the gate.
type Action int

const (
	// Proceed means the version should be uploaded.
	Proceed Action = iota
	// Skip means the version already exists and must be left alone.
	Skip
)

// String returns a lowercase name of the action.
func (a Action) String() string {
	switch a {
	case Proceed:
		return "proceed"
	case Skip:
		return "skip"
	default:
		return "unknown"
	}
}

// Decision explains the gate's answer.
type Decision struct {
	Action Action
	// Exists is true when the service confirmed the version exists.
	Exists bool
	// Overwrite is true when an existing version will be replaced.
	Overwrite bool
	// LookupErr holds a failed existence check that was treated as absent.
	LookupErr error
}

// VersionLookup is the part of the hosting client the gate uses.
type VersionLookup interface {
	GetVersion(ctx context.Context, slug, version string) (*hub.Version, error)
}

// Gate performs existence checks against the hosting service.
type Gate struct {
	lookup VersionLookup
	logger *log.Logger
}

// New creates a Gate.
func New(lookup VersionLookup, logger *log.Logger) *Gate {
	return &Gate{lookup: lookup, logger: logging.OrDiscard(logger)}
}

// ShouldPublish checks whether slug already has version. A failed lookup
// counts as "not found" so a flaky existence check never blocks a release;
// the upload itself then reports any real problem.
func (g *Gate) ShouldPublish(ctx context.Context, slug, version string, overwrite bool) Decision {
	_, err := g.lookup.GetVersion(ctx, slug, version)
	switch {
	case err == nil:
		if !overwrite {
			g.logger.Info("Version exists, skipping (use --overwrite to force)", "project", slug, "version", version)
			return Decision{Action: Skip, Exists: true}
		}
		g.logger.Info("Version exists, overwriting", "project", slug, "version", version)
		return Decision{Action: Proceed, Exists: true, Overwrite: true}

	case hub.IsNotFound(err):
		g.logger.Debug("Version not published yet", "project", slug, "version", version)
		return Decision{Action: Proceed}

	default:
		g.logger.Warn("Existence check failed, assuming version is new", "project", slug, "version", version, "error", err)
		return Decision{Action: Proceed, LookupErr: err}
	}
}
