package source

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopysearch/catsync/core"
)

func seedSQLiteCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE products (sku TEXT PRIMARY KEY, name TEXT, price REAL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO products (sku, name, price) VALUES
		('A1', 'Red Shoe', 99.99),
		('B2', 'Blue Shoe', 79.99)`)
	require.NoError(t, err)

	return path
}

func sqlRequest(cfg core.SQLDatabaseConfig) *core.SyncRequest {
	return &core.SyncRequest{
		SourceConfig: core.SourceConfig{
			Source:      core.SourceSQLDatabase,
			SQLDatabase: &cfg,
		},
	}
}

func TestSQLFetchFromSQLite(t *testing.T) {
	path := seedSQLiteCatalog(t)

	factory := NewFactory()
	records, err := factory.Fetch(context.Background(), sqlRequest(core.SQLDatabaseConfig{
		DatabaseType: core.DatabaseSQLite,
		Database:     path,
		Table:        "products",
	}))
	require.NoError(t, err)
	require.Len(t, records, 2)

	bySKU := map[string]core.RawRecord{}
	for _, record := range records {
		bySKU[record["sku"].(string)] = record
	}
	assert.Equal(t, "Red Shoe", bySKU["A1"]["name"])
	assert.Equal(t, 79.99, bySKU["B2"]["price"])
}

func TestSQLFetchMissingTable(t *testing.T) {
	path := seedSQLiteCatalog(t)

	factory := NewFactory()
	_, err := factory.Fetch(context.Background(), sqlRequest(core.SQLDatabaseConfig{
		DatabaseType: core.DatabaseSQLite,
		Database:     path,
		Table:        "no_such_table",
	}))
	assert.Error(t, err)
}

func TestSQLFetchUnsupportedDriver(t *testing.T) {
	factory := NewFactory()
	_, err := factory.Fetch(context.Background(), sqlRequest(core.SQLDatabaseConfig{
		DatabaseType: core.DatabaseMySQL,
		Host:         "db.internal",
		Port:         3306,
		Database:     "catalog",
		Username:     "reader",
		Password:     "secret",
		Table:        "products",
	}))
	assert.ErrorIs(t, err, core.ErrUnsupportedDatabase)
}
