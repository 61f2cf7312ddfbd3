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

package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/canopysearch/catsync/core"
)

// sqlAdapter reads product rows from an external SQL database. It selects
// every column of the configured table and emits one record per row.
// Any connection or query error fails the fetch.
type sqlAdapter struct {
	logger *slog.Logger
}

var _ Adapter = (*sqlAdapter)(nil)

func newSQLAdapter(logger *slog.Logger) *sqlAdapter {
	return &sqlAdapter{
		logger: logger.With("component", "sql-source"),
	}
}

func (a *sqlAdapter) Fetch(ctx context.Context, req *core.SyncRequest) ([]core.RawRecord, error) {
	cfg := req.SourceConfig.SQLDatabase
	if cfg == nil {
		return nil, fmt.Errorf("%w: sql_database", core.ErrMissingVariant)
	}

	driver, err := cfg.DriverName()
	if err != nil {
		return nil, err
	}
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	a.logger.Info("querying external database", "driver", driver, "table", cfg.Table)

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	rows, err := db.QueryContext(ctx, cfg.Query())
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", cfg.Table, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}

	a.logger.Info("queried external database", "table", cfg.Table, "records", len(records))
	return records, nil
}

// scanRecords converts every result row into an attribute bag keyed by
// column name. Byte slices become strings so text columns survive the
// driver's raw representation.
func scanRecords(rows *sql.Rows) ([]core.RawRecord, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var records []core.RawRecord
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))

	for rows.Next() {
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		record := make(core.RawRecord, len(columns))
		for i, name := range columns {
			value := values[i]
			if b, ok := value.([]byte); ok {
				value = string(b)
			}
			record[name] = value
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return records, nil
}
