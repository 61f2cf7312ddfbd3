// Copyright 2025 Canopy Search
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package syncrun executes product sync runs. The orchestrator drives one
// run through fetch-and-normalize, upsert, and finalize steps with
// per-step retry and timeouts, recording every run in the sync history
// ledger. Record-level embedding work goes through a bounded worker pool
// with a token-bucket rate limit, reusing stored vectors when a record's
// content hash is unchanged.
package syncrun
