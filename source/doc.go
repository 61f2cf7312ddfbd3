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

// Package source provides the adapters that fetch raw product records from
// the configured origins: manual upload and partner API payloads passed
// through verbatim, web pages crawled and chunked, hosted CSV/JSON files
// downloaded, and external SQL databases queried.
//
// Fetch failure semantics differ by source. The crawler is fail-soft: a page
// that cannot be fetched is logged and skipped, and the remaining pages
// still produce records. Hosted file and SQL fetches are fail-fast: any
// error aborts the fetch so a partial download never masquerades as a
// complete catalog.
package source
