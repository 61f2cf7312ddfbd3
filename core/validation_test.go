package core

import (
	"errors"
	"testing"
)

func validCrawlerConfig() SourceConfig {
	return SourceConfig{
		Source:  SourceCrawler,
		Crawler: &CrawlerConfig{URLs: []string{"https://example.com/catalog"}, MaxDepth: 1},
	}
}

func validSQLConfig() SourceConfig {
	return SourceConfig{
		Source: SourceSQLDatabase,
		SQLDatabase: &SQLDatabaseConfig{
			DatabaseType: DatabasePostgreSQL,
			Host:         "db.internal",
			Port:         5432,
			Database:     "catalog",
			Username:     "sync",
			Password:     "secret",
			Table:        "products",
		},
	}
}

func TestValidateSourceConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SourceConfig)
		config  SourceConfig
		wantErr error
	}{
		{
			name:   "valid crawler",
			config: validCrawlerConfig(),
		},
		{
			name:   "valid sql database",
			config: validSQLConfig(),
		},
		{
			name: "valid manual upload",
			config: SourceConfig{
				Source:       SourceManualUpload,
				ManualUpload: &ManualUploadConfig{FileFormat: FormatCSV},
			},
		},
		{
			name:   "valid partner api without settings block",
			config: SourceConfig{Source: SourcePartnerAPI},
		},
		{
			name: "valid hosted file with basic auth",
			config: SourceConfig{
				Source: SourceHostedFile,
				HostedFile: &HostedFileConfig{
					FileURL:    "https://files.example.com/products.json",
					FileFormat: FormatJSON,
					AuthType:   AuthBasicAuth,
					Username:   "u",
					Password:   "p",
				},
			},
		},
		{
			name:    "unknown source",
			config:  SourceConfig{Source: Source("FTP")},
			wantErr: ErrUnknownSource,
		},
		{
			name:    "crawler without settings block",
			config:  SourceConfig{Source: SourceCrawler},
			wantErr: ErrMissingVariant,
		},
		{
			name: "crawler with empty url list",
			config: SourceConfig{
				Source:  SourceCrawler,
				Crawler: &CrawlerConfig{MaxDepth: 1},
			},
			wantErr: ErrEmptyURLList,
		},
		{
			name: "crawler with zero max depth",
			config: SourceConfig{
				Source:  SourceCrawler,
				Crawler: &CrawlerConfig{URLs: []string{"https://example.com"}},
			},
			wantErr: ErrInvalidMaxDepth,
		},
		{
			name: "sql with negative port",
			config: func() SourceConfig {
				cfg := validSQLConfig()
				cfg.SQLDatabase.Port = -1
				return cfg
			}(),
			wantErr: ErrInvalidPort,
		},
		{
			name: "sql with empty host",
			config: func() SourceConfig {
				cfg := validSQLConfig()
				cfg.SQLDatabase.Host = ""
				return cfg
			}(),
			wantErr: ErrMissingDatabaseField,
		},
		{
			name: "sqlite skips network fields",
			config: SourceConfig{
				Source: SourceSQLDatabase,
				SQLDatabase: &SQLDatabaseConfig{
					DatabaseType: DatabaseSQLite,
					Database:     "/var/lib/catalog.db",
					Table:        "products",
				},
			},
		},
		{
			name: "manual upload with bad format",
			config: SourceConfig{
				Source:       SourceManualUpload,
				ManualUpload: &ManualUploadConfig{FileFormat: "xml"},
			},
			wantErr: ErrInvalidFileFormat,
		},
		{
			name: "hosted file basic auth without password",
			config: SourceConfig{
				Source: SourceHostedFile,
				HostedFile: &HostedFileConfig{
					FileURL:    "https://files.example.com/products.csv",
					FileFormat: FormatCSV,
					AuthType:   AuthBasicAuth,
					Username:   "u",
				},
			},
			wantErr: ErrMissingCredentials,
		},
		{
			name: "hosted file without url",
			config: SourceConfig{
				Source:     SourceHostedFile,
				HostedFile: &HostedFileConfig{FileFormat: FormatCSV},
			},
			wantErr: ErrEmptyFileURL,
		},
		{
			name: "variant block for wrong source",
			config: func() SourceConfig {
				cfg := validCrawlerConfig()
				cfg.HostedFile = &HostedFileConfig{FileURL: "https://x", FileFormat: FormatCSV}
				return cfg
			}(),
			wantErr: ErrConflictingVariant,
		},
		{
			name: "auto sync without interval",
			config: func() SourceConfig {
				cfg := validCrawlerConfig()
				cfg.AutoSync = true
				return cfg
			}(),
			wantErr: ErrIntervalRequired,
		},
		{
			name: "auto sync with interval",
			config: func() SourceConfig {
				cfg := validCrawlerConfig()
				cfg.AutoSync = true
				cfg.SyncInterval = IntervalDaily
				return cfg
			}(),
		},
		{
			name: "bad interval value",
			config: func() SourceConfig {
				cfg := validCrawlerConfig()
				cfg.SyncInterval = SyncInterval("HOURLY")
				return cfg
			}(),
			wantErr: ErrInvalidInterval,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSourceConfig(&tt.config)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, ErrInvalidSourceConfig) {
				t.Fatalf("error should wrap ErrInvalidSourceConfig, got %v", err)
			}
		})
	}
}

func TestValidateSourceConfigNil(t *testing.T) {
	if err := ValidateSourceConfig(nil); !errors.Is(err, ErrInvalidSourceConfig) {
		t.Fatalf("expected ErrInvalidSourceConfig, got %v", err)
	}
}

func TestValidateSyncRequest(t *testing.T) {
	products := []RawRecord{{"sku": "A1", "name": "Red Shoe"}}

	tests := []struct {
		name    string
		request SyncRequest
		wantErr error
	}{
		{
			name: "manual upload with products",
			request: SyncRequest{
				SourceConfig: SourceConfig{
					Source:       SourceManualUpload,
					ManualUpload: &ManualUploadConfig{FileFormat: FormatJSON},
				},
				Products: products,
			},
		},
		{
			name: "partner api with products",
			request: SyncRequest{
				SourceConfig: SourceConfig{Source: SourcePartnerAPI},
				Products:     products,
			},
		},
		{
			name: "manual upload without products",
			request: SyncRequest{
				SourceConfig: SourceConfig{
					Source:       SourceManualUpload,
					ManualUpload: &ManualUploadConfig{FileFormat: FormatJSON},
				},
			},
			wantErr: ErrProductsRequired,
		},
		{
			name: "crawler with products",
			request: SyncRequest{
				SourceConfig: validCrawlerConfig(),
				Products:     products,
			},
			wantErr: ErrProductsForbidden,
		},
		{
			name:    "crawler without products",
			request: SyncRequest{SourceConfig: validCrawlerConfig()},
		},
		{
			name: "invalid config rejected before products check",
			request: SyncRequest{
				SourceConfig: SourceConfig{Source: SourceCrawler},
			},
			wantErr: ErrMissingVariant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSyncRequest(&tt.request)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateFieldMapping(t *testing.T) {
	valid := FieldMapping{
		IDField:                   "sku",
		TitleField:                "name",
		SearchableAttributeFields: []string{"name", "desc"},
	}
	if err := ValidateFieldMapping(&valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	noTitle := valid
	noTitle.TitleField = ""
	if err := ValidateFieldMapping(&noTitle); !errors.Is(err, ErrInvalidFieldMapping) {
		t.Fatalf("expected ErrInvalidFieldMapping, got %v", err)
	}

	noFields := valid
	noFields.SearchableAttributeFields = nil
	if err := ValidateFieldMapping(&noFields); !errors.Is(err, ErrInvalidFieldMapping) {
		t.Fatalf("expected ErrInvalidFieldMapping, got %v", err)
	}

	if err := ValidateFieldMapping(nil); !errors.Is(err, ErrInvalidFieldMapping) {
		t.Fatalf("expected ErrInvalidFieldMapping, got %v", err)
	}
}

func TestTriggerFor(t *testing.T) {
	tests := []struct {
		source Source
		want   TriggerType
	}{
		{SourceManualUpload, TriggerImmediate},
		{SourcePartnerAPI, TriggerImmediate},
		{SourceCrawler, TriggerScheduled},
		{SourceHostedFile, TriggerScheduled},
		{SourceSQLDatabase, TriggerScheduled},
	}
	for _, tt := range tests {
		got, err := TriggerFor(tt.source)
		if err != nil {
			t.Fatalf("TriggerFor(%s): %v", tt.source, err)
		}
		if got != tt.want {
			t.Errorf("TriggerFor(%s) = %s, want %s", tt.source, got, tt.want)
		}
	}

	if _, err := TriggerFor(Source("FTP")); !errors.Is(err, ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}
}
