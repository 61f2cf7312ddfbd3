package core

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// Source identifies one of the configured origins of product data.
type Source string

const (
	// SourceManualUpload is caller-supplied product data from a file upload.
	SourceManualUpload Source = "MANUAL_FILE_UPLOAD"
	// SourceCrawler fetches product content from a list of web pages.
	SourceCrawler Source = "CRAWLER"
	// SourcePartnerAPI is caller-supplied product data pushed by a partner integration.
	SourcePartnerAPI Source = "PARTNER_API"
	// SourceHostedFile downloads a CSV or JSON file from a URL.
	SourceHostedFile Source = "HOSTED_FILE"
	// SourceSQLDatabase reads product rows from an external SQL database.
	SourceSQLDatabase Source = "SQL_DATABASE"
)

// Sources lists all known source kinds.
var Sources = []Source{
	SourceManualUpload,
	SourceCrawler,
	SourcePartnerAPI,
	SourceHostedFile,
	SourceSQLDatabase,
}

// SyncStatus is the lifecycle state of a sync run.
type SyncStatus string

const (
	// StatusProcessing is the initial state of every run.
	StatusProcessing SyncStatus = "PROCESSING"
	// StatusSuccess is a terminal state. The run completed and records_processed is set.
	StatusSuccess SyncStatus = "SUCCESS"
	// StatusFailed is a terminal state. The run was aborted after retries were exhausted.
	StatusFailed SyncStatus = "FAILED"
)

// Terminal reports whether the status is SUCCESS or FAILED.
// A history row in a terminal state is immutable.
func (s SyncStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// SyncInterval is the recurrence interval for auto-syncing scheduled sources.
type SyncInterval string

const (
	IntervalDaily   SyncInterval = "DAILY"
	IntervalWeekly  SyncInterval = "WEEKLY"
	IntervalMonthly SyncInterval = "MONTHLY"
)

// TriggerType classifies how a source's sync runs are started.
type TriggerType string

const (
	// TriggerImmediate sources execute once per API call with caller-supplied data.
	TriggerImmediate TriggerType = "IMMEDIATE"
	// TriggerScheduled sources fetch their own data and may recur via auto_sync.
	TriggerScheduled TriggerType = "SCHEDULED"
)

// AuthType is the authentication scheme for hosted file downloads.
type AuthType string

const (
	AuthPublic    AuthType = "PUBLIC"
	AuthBasicAuth AuthType = "BASIC_AUTH"
)

// DatabaseType identifies the SQL dialect/driver for the database source.
type DatabaseType string

const (
	DatabasePostgreSQL DatabaseType = "POSTGRESQL"
	DatabaseMySQL      DatabaseType = "MYSQL"
	DatabaseSQLite     DatabaseType = "SQLITE"
)

// File formats accepted by the upload and hosted file sources.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// SourceConfig is the tagged union of per-source settings. Source is the
// discriminator; exactly the matching variant block must be populated
// (PARTNER_API carries no settings and its block may be omitted).
type SourceConfig struct {
	Source       Source       `json:"source"`
	AutoSync     bool         `json:"auto_sync"`
	SyncInterval SyncInterval `json:"sync_interval,omitempty"`

	ManualUpload *ManualUploadConfig `json:"manual_upload,omitempty"`
	Crawler      *CrawlerConfig      `json:"crawler,omitempty"`
	PartnerAPI   *PartnerAPIConfig   `json:"partner_api,omitempty"`
	HostedFile   *HostedFileConfig   `json:"hosted_file,omitempty"`
	SQLDatabase  *SQLDatabaseConfig  `json:"sql_database,omitempty"`
}

// ManualUploadConfig configures the manual file upload source.
type ManualUploadConfig struct {
	FileFormat string `json:"file_format"`
}

// CrawlerConfig configures the web crawler source.
type CrawlerConfig struct {
	URLs     []string `json:"urls"`
	MaxDepth int      `json:"max_depth"`
}

// PartnerAPIConfig configures the partner API source. The partner pushes
// records in the trigger call, so there is nothing to configure today.
type PartnerAPIConfig struct{}

// HostedFileConfig configures the hosted file source.
type HostedFileConfig struct {
	FileURL    string   `json:"file_url"`
	FileFormat string   `json:"file_format"`
	AuthType   AuthType `json:"auth_type,omitempty"`
	Username   string   `json:"username,omitempty"`
	Password   string   `json:"password,omitempty"`
}

// SQLDatabaseConfig configures the external SQL database source.
type SQLDatabaseConfig struct {
	DatabaseType DatabaseType `json:"database_type"`
	Host         string       `json:"host"`
	Port         int          `json:"port"`
	Database     string       `json:"database"`
	Username     string       `json:"username"`
	Password     string       `json:"password"`
	Table        string       `json:"table"`
}

// DriverName returns the database/sql driver name for the configured type.
func (c *SQLDatabaseConfig) DriverName() (string, error) {
	switch c.DatabaseType {
	case DatabasePostgreSQL:
		return "postgres", nil
	case DatabaseSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDatabase, c.DatabaseType)
	}
}

// DSN builds the connection string for the configured database type.
func (c *SQLDatabaseConfig) DSN() (string, error) {
	switch c.DatabaseType {
	case DatabasePostgreSQL:
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			c.Username, c.Password, c.Host, c.Port, c.Database), nil
	case DatabaseSQLite:
		return c.Database, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDatabase, c.DatabaseType)
	}
}

// Query returns the select statement used to read product rows.
func (c *SQLDatabaseConfig) Query() string {
	return "SELECT * FROM " + c.Table
}

// RawRecord is one unprocessed record as produced by a source adapter:
// an attribute bag keyed by field name.
type RawRecord map[string]any

// FieldMapping tells the normalizer how to derive canonical product fields
// from raw records.
type FieldMapping struct {
	// IDField names the attribute holding the record identity.
	// Records without it get a generated UUID.
	IDField string `json:"id_field"`
	// TitleField names the attribute holding the display title.
	TitleField string `json:"title_field"`
	// ImageField optionally names the attribute holding an image URL.
	ImageField string `json:"image_field,omitempty"`
	// SearchableAttributeFields lists the attributes joined into the
	// searchable content, in order.
	SearchableAttributeFields []string `json:"searchable_attribute_fields"`
}

// ProductRecord is a normalized catalog entry. Rows are created on first
// sync and upserted by ID on subsequent syncs; this pipeline never deletes.
type ProductRecord struct {
	ID                string `json:"id"`
	Title             string `json:"title,omitempty"`
	SearchableContent string `json:"searchable_content,omitempty"`
	// ContentHash is the 64-bit BLAKE2b digest of SearchableContent. The
	// embedding is reused across runs while the hash is unchanged.
	ContentHash uint64    `json:"content_hash"`
	ImageURL    string    `json:"image_url,omitempty"`
	Attributes  RawRecord `json:"attributes,omitempty"`
	// Embedding is nil until generated. It stays nil when embedding
	// generation fails; the record is kept regardless.
	Embedding []float32 `json:"embedding,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SyncHistory is one row of the append/update-only audit ledger. A row is
// created with status PROCESSING and mutated exactly once, to a terminal
// status.
type SyncHistory struct {
	ID               string     `json:"id"`
	Source           Source     `json:"source"`
	Status           SyncStatus `json:"status"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	RecordsProcessed int        `json:"records_processed"`
	NextRun          *time.Time `json:"next_run,omitempty"`
	// Error carries failure detail for FAILED runs so operators can
	// diagnose without digging through logs.
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SyncRequest is the trigger payload for one sync run. Products is required
// exactly when the source is caller-supplied (manual upload, partner API)
// and forbidden otherwise.
type SyncRequest struct {
	SourceConfig SourceConfig `json:"source_config"`
	Products     []RawRecord  `json:"products,omitempty"`
}

// ContentHash computes a 64-bit BLAKE2b digest of text. Identical content
// always produces identical hashes, which makes embedding memoization a
// cheap integer comparison instead of a full content compare.
func ContentHash(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// NewRunID generates a unique sync run identity for a source. Overlapping
// scheduled fires and manual triggers for the same source never collide.
func NewRunID(source Source) string {
	return "product-sync-" + strings.ToLower(string(source)) + "-" + uuid.NewString()
}
