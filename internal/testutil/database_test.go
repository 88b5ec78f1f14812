package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestDSNs(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("TEST_POSTGRES_DSN", "")
		t.Setenv("TEST_MYSQL_DSN", "")

		assert.Equal(t, defaultPostgresTestDSN, GetPostgresTestDSN())
		assert.Equal(t, defaultMySQLTestDSN, GetMySQLTestDSN())
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("TEST_POSTGRES_DSN", "postgres://ci@db:5432/ci")
		t.Setenv("TEST_MYSQL_DSN", "ci@tcp(db:3306)/ci")

		assert.Equal(t, "postgres://ci@db:5432/ci", GetPostgresTestDSN())
		assert.Equal(t, "ci@tcp(db:3306)/ci", GetMySQLTestDSN())
	})
}

func TestGetMigrationsPath(t *testing.T) {
	for _, dbType := range []string{"postgresql", "mysql"} {
		t.Run(dbType, func(t *testing.T) {
			path, err := getMigrationsPath(dbType)
			require.NoError(t, err)
			assert.Equal(t, dbType, filepath.Base(path))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.True(t, info.IsDir())
		})
	}

	t.Run("unknown dialect", func(t *testing.T) {
		path, err := getMigrationsPath("sqlite")
		assert.Error(t, err)
		assert.Empty(t, path)
	})

	t.Run("from a nested directory", func(t *testing.T) {
		wd, err := os.Getwd()
		require.NoError(t, err)
		nested := filepath.Join(wd, "testdata", "nested")
		//nolint:gosec // test directory
		require.NoError(t, os.MkdirAll(nested, 0o755))
		t.Cleanup(func() {
			_ = os.Chdir(wd)
			_ = os.RemoveAll(filepath.Join(wd, "testdata"))
		})
		require.NoError(t, os.Chdir(nested))

		path, err := getMigrationsPath("postgresql")
		require.NoError(t, err)
		assert.Equal(t, "postgresql", filepath.Base(path))
	})
}

func TestUUIDToDriverValue(t *testing.T) {
	id := uuid.Must(uuid.NewV7())

	pg, err := uuidToDriverValue(id, "postgres")
	require.NoError(t, err)
	assert.Equal(t, id, pg)

	my, err := uuidToDriverValue(id, "mysql")
	require.NoError(t, err)
	raw, ok := my.([]byte)
	require.True(t, ok)
	assert.Equal(t, id[:], raw)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$1, $2, $3", placeholders("postgres", 3))
	assert.Equal(t, "?, ?", placeholders("mysql", 2))
}

func TestTeardownDBWithNilDB(t *testing.T) {
	assert.NotPanics(t, func() {
		TeardownDB(t, nil)
	})
}

func TestDatabaseLifecycle(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		setup   func(t *testing.T) *sql.DB
		skip    func(t *testing.T)
		cleanup func(t *testing.T, db *sql.DB)
	}{
		{"postgres", "postgres", SetupPostgresDB, SkipIfNoPostgres, CleanupPostgresDB},
		{"mysql", "mysql", SetupMySQLDB, SkipIfNoMySQL, CleanupMySQLDB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.skip(t)

			db := tt.setup(t)
			for _, table := range tables {
				assert.Zero(t, CountRows(t, db, table), table+" should be empty after setup")
			}

			kmsID := CreateTestKmsConfig(t, db, tt.driver, "acc-1", "primary")
			assert.NotEqual(t, uuid.Nil, kmsID)
			assert.Equal(t, 1, CountRows(t, db, "kms_configs"))

			tt.cleanup(t, db)
			assert.Zero(t, CountRows(t, db, "kms_configs"))

			TeardownDB(t, db)
			assert.Error(t, db.Ping(), "database should be closed after teardown")
		})
	}
}
