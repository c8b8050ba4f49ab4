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

package main

import (
	"errors"

	puberrors "github.com/sirseerhq/sirseer-publish/internal/errors"
)

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	// Setup and authentication errors
	if errors.Is(err, puberrors.ErrSetup) ||
		errors.Is(err, puberrors.ErrInvalidToken) ||
		errors.Is(err, puberrors.ErrRepoNotFound) ||
		errors.Is(err, puberrors.ErrNotRepository) ||
		errors.Is(err, puberrors.ErrInvalidPattern) ||
		errors.Is(err, puberrors.ErrManifestNotFound) ||
		errors.Is(err, puberrors.ErrRateLimit) {
		return 2
	}

	if errors.Is(err, puberrors.ErrNetworkFailure) {
		return 3 // Network errors
	}

	return 1 // General error, including a batch with failed tags
}
