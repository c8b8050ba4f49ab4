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

package batch

// State is a step of a batch run.
type State int

const (
	Scanning State = iota
	AwaitingTagConfirmation
	GeneratingManifests
	AwaitingManifestConfirmation
	Uploading
	Done
)

var stateNames = map[State]string{
	Scanning:                     "scanning",
	AwaitingTagConfirmation:      "awaiting-tag-confirmation",
	GeneratingManifests:          "generating-manifests",
	AwaitingManifestConfirmation: "awaiting-manifest-confirmation",
	Uploading:                    "uploading",
	Done:                         "done",
}

// String returns the state name.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
