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

// Package storage provides the storage abstraction layer for catsync.
//
// This package defines repository interfaces that decouple storage
// implementation from the sync pipeline. The catalog store is treated as an
// external engine consumed through a narrow contract: upsert-by-id, point
// lookup, and paged listing. Full-text/vector query execution is delegated
// to whatever engine backs the repositories and is out of scope here.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return these interfaces, not
// concrete types:
//
//	products := badgerstore.NewProductRepository(backend)  // storage.ProductRepository
//
// This keeps consumers decoupled from the BadgerDB specifics and lets tests
// substitute in-memory or mock implementations without modification.
//
// # Thread Safety
//
// All repository implementations must be thread-safe. Sync runs for
// different sources write concurrently; product upserts are keyed by record
// id so concurrent writers converge without cross-run locking.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and
// timeout support.
package storage
