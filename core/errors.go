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

package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidSourceConfig indicates a SourceConfig failed validation.
	ErrInvalidSourceConfig = errors.New("invalid source config")

	// ErrInvalidSyncRequest indicates a SyncRequest failed validation.
	ErrInvalidSyncRequest = errors.New("invalid sync request")

	// ErrUnknownSource indicates the Source discriminator is not one of the
	// five known kinds.
	ErrUnknownSource = errors.New("unknown source")

	// ErrMissingVariant indicates the variant block matching the Source
	// discriminator is absent.
	ErrMissingVariant = errors.New("source settings required")

	// ErrConflictingVariant indicates a variant block for a different
	// source kind is populated.
	ErrConflictingVariant = errors.New("conflicting source settings")

	// ErrInvalidFileFormat indicates a file format other than csv or json.
	ErrInvalidFileFormat = errors.New("file format must be csv or json")

	// ErrEmptyURLList indicates a crawler config with no URLs.
	ErrEmptyURLList = errors.New("urls list cannot be empty")

	// ErrInvalidMaxDepth indicates a crawler max depth below 1.
	ErrInvalidMaxDepth = errors.New("max depth must be at least 1")

	// ErrEmptyFileURL indicates a hosted file config without a URL.
	ErrEmptyFileURL = errors.New("file url cannot be empty")

	// ErrMissingCredentials indicates BASIC_AUTH without username or password.
	ErrMissingCredentials = errors.New("username and password required for basic auth")

	// ErrInvalidAuthType indicates an unknown hosted file auth type.
	ErrInvalidAuthType = errors.New("invalid auth type")

	// ErrMissingDatabaseField indicates an empty required SQL connection field.
	ErrMissingDatabaseField = errors.New("all database connection fields are required")

	// ErrInvalidPort indicates a non-positive SQL port.
	ErrInvalidPort = errors.New("port must be a positive number")

	// ErrUnsupportedDatabase indicates a database type with no available driver.
	ErrUnsupportedDatabase = errors.New("unsupported database type")

	// ErrInvalidInterval indicates an unknown sync interval.
	ErrInvalidInterval = errors.New("invalid sync interval")

	// ErrIntervalRequired indicates auto_sync enabled without an interval.
	ErrIntervalRequired = errors.New("sync interval required when auto_sync is enabled")

	// ErrProductsRequired indicates a caller-supplied source without products.
	ErrProductsRequired = errors.New("products must be provided for this source")

	// ErrProductsForbidden indicates products supplied for an adapter-fetched source.
	ErrProductsForbidden = errors.New("products must not be provided for this source")

	// ErrInvalidFieldMapping indicates an unusable field mapping.
	ErrInvalidFieldMapping = errors.New("invalid field mapping")
)
