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

import "fmt"

// TriggerFor maps each source kind to its trigger type. The mapping is
// static: caller-supplied sources are immediate, adapter-fetched sources
// are scheduled.
func TriggerFor(source Source) (TriggerType, error) {
	switch source {
	case SourceManualUpload, SourcePartnerAPI:
		return TriggerImmediate, nil
	case SourceCrawler, SourceHostedFile, SourceSQLDatabase:
		return TriggerScheduled, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}
}

// ValidateSourceConfig validates the tagged union according to the
// per-variant rules. Exactly the variant block matching Source must be
// populated; PARTNER_API has no settings and its block is optional.
func ValidateSourceConfig(cfg *SourceConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidSourceConfig)
	}

	if err := validateVariantShape(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSourceConfig, err)
	}

	if err := validateRecurrence(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSourceConfig, err)
	}

	var err error
	switch cfg.Source {
	case SourceManualUpload:
		err = validateManualUpload(cfg.ManualUpload)
	case SourceCrawler:
		err = validateCrawler(cfg.Crawler)
	case SourcePartnerAPI:
		// Nothing to validate.
	case SourceHostedFile:
		err = validateHostedFile(cfg.HostedFile)
	case SourceSQLDatabase:
		err = validateSQLDatabase(cfg.SQLDatabase)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownSource, cfg.Source)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSourceConfig, err)
	}
	return nil
}

// ValidateSyncRequest validates the trigger payload: the source config must
// be valid, and products must be present exactly when the source is
// caller-supplied.
func ValidateSyncRequest(req *SyncRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidSyncRequest)
	}

	if err := ValidateSourceConfig(&req.SourceConfig); err != nil {
		return err
	}

	trigger, err := TriggerFor(req.SourceConfig.Source)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSyncRequest, err)
	}

	if trigger == TriggerImmediate && len(req.Products) == 0 {
		return fmt.Errorf("%w: %w: %s", ErrInvalidSyncRequest, ErrProductsRequired, req.SourceConfig.Source)
	}
	if trigger == TriggerScheduled && len(req.Products) > 0 {
		return fmt.Errorf("%w: %w: %s", ErrInvalidSyncRequest, ErrProductsForbidden, req.SourceConfig.Source)
	}
	return nil
}

// ValidateFieldMapping checks that a mapping can produce usable records.
func ValidateFieldMapping(m *FieldMapping) error {
	if m == nil {
		return fmt.Errorf("%w: mapping is nil", ErrInvalidFieldMapping)
	}
	if m.TitleField == "" {
		return fmt.Errorf("%w: title field is required", ErrInvalidFieldMapping)
	}
	if len(m.SearchableAttributeFields) == 0 {
		return fmt.Errorf("%w: at least one searchable attribute field is required", ErrInvalidFieldMapping)
	}
	return nil
}

// validateVariantShape rejects configs whose populated variant blocks do
// not match the discriminator.
func validateVariantShape(cfg *SourceConfig) error {
	type variant struct {
		source  Source
		present bool
	}
	variants := []variant{
		{SourceManualUpload, cfg.ManualUpload != nil},
		{SourceCrawler, cfg.Crawler != nil},
		{SourcePartnerAPI, cfg.PartnerAPI != nil},
		{SourceHostedFile, cfg.HostedFile != nil},
		{SourceSQLDatabase, cfg.SQLDatabase != nil},
	}
	for _, v := range variants {
		if v.present && v.source != cfg.Source {
			return fmt.Errorf("%w: %s settings on %s source", ErrConflictingVariant, v.source, cfg.Source)
		}
	}
	return nil
}

func validateRecurrence(cfg *SourceConfig) error {
	if cfg.AutoSync && cfg.SyncInterval == "" {
		return ErrIntervalRequired
	}
	if cfg.SyncInterval != "" {
		switch cfg.SyncInterval {
		case IntervalDaily, IntervalWeekly, IntervalMonthly:
		default:
			return fmt.Errorf("%w: %s", ErrInvalidInterval, cfg.SyncInterval)
		}
	}
	return nil
}

func validateManualUpload(c *ManualUploadConfig) error {
	if c == nil {
		return fmt.Errorf("%w: %s", ErrMissingVariant, SourceManualUpload)
	}
	return validateFileFormat(c.FileFormat)
}

func validateCrawler(c *CrawlerConfig) error {
	if c == nil {
		return fmt.Errorf("%w: %s", ErrMissingVariant, SourceCrawler)
	}
	if len(c.URLs) == 0 {
		return ErrEmptyURLList
	}
	for _, u := range c.URLs {
		if u == "" {
			return fmt.Errorf("%w: empty url", ErrEmptyURLList)
		}
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxDepth, c.MaxDepth)
	}
	return nil
}

func validateHostedFile(c *HostedFileConfig) error {
	if c == nil {
		return fmt.Errorf("%w: %s", ErrMissingVariant, SourceHostedFile)
	}
	if c.FileURL == "" {
		return ErrEmptyFileURL
	}
	if err := validateFileFormat(c.FileFormat); err != nil {
		return err
	}
	switch c.AuthType {
	case AuthPublic, "":
	case AuthBasicAuth:
		if c.Username == "" || c.Password == "" {
			return ErrMissingCredentials
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidAuthType, c.AuthType)
	}
	return nil
}

func validateSQLDatabase(c *SQLDatabaseConfig) error {
	if c == nil {
		return fmt.Errorf("%w: %s", ErrMissingVariant, SourceSQLDatabase)
	}
	switch c.DatabaseType {
	case DatabasePostgreSQL, DatabaseMySQL, DatabaseSQLite:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedDatabase, c.DatabaseType)
	}
	if c.Database == "" || c.Table == "" {
		return ErrMissingDatabaseField
	}
	// SQLite is file-backed: no network fields to check.
	if c.DatabaseType != DatabaseSQLite {
		if c.Host == "" || c.Username == "" || c.Password == "" {
			return ErrMissingDatabaseField
		}
		if c.Port <= 0 {
			return fmt.Errorf("%w: got %d", ErrInvalidPort, c.Port)
		}
	}
	return nil
}

func validateFileFormat(format string) error {
	switch format {
	case FormatCSV, FormatJSON:
		return nil
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidFileFormat, format)
	}
}
