package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(t.TempDir(), DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func openRawConn(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), FileName)
	conn, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", dbPath))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestOpen_CreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	database, err := Open(dir, DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	assert.FileExists(t, filepath.Join(dir, FileName))
}

func TestMigrateUp_FreshDB(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	applied, err := appliedVersions(ctx, database.Conn())
	require.NoError(t, err)

	migrations, err := loadMigrations()
	require.NoError(t, err)
	require.Len(t, applied, len(migrations))
	for _, m := range migrations {
		assert.True(t, applied[m.Version], "version %d should be applied", m.Version)
	}

	_, err = database.Conn().ExecContext(ctx, "SELECT 1 FROM sessions LIMIT 0")
	require.NoError(t, err, "sessions table should exist")

	_, err = database.Conn().ExecContext(ctx, "SELECT 1 FROM result_lines LIMIT 0")
	require.NoError(t, err, "result_lines table should exist")
}

func TestMigrateUp_Idempotent(t *testing.T) {
	database := openTestDB(t)
	assert.NoError(t, migrateUp(context.Background(), database.Conn()))
}

func TestMigrateDown(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	conn := database.Conn()

	_, err := conn.ExecContext(ctx, `
		INSERT INTO sessions (id, participant_id, sink_id, seed, trials, started_at)
		VALUES ('s-1', 'p1', 'p1_DSCQS_result', 42, 3, 1)
	`)
	require.NoError(t, err)

	require.NoError(t, MigrateDown(ctx, conn, 1))

	_, err = conn.ExecContext(ctx, "SELECT 1 FROM result_lines LIMIT 0")
	require.Error(t, err, "result_lines should not exist after down migration")

	var count int
	require.NoError(t, conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions").Scan(&count))
	assert.Equal(t, 1, count, "session row should be preserved")

	// and back up again
	require.NoError(t, migrateUp(ctx, conn))
	_, err = conn.ExecContext(ctx, "SELECT 1 FROM result_lines LIMIT 0")
	require.NoError(t, err)
}

func TestMigrateDown_InvalidN(t *testing.T) {
	conn := openRawConn(t)
	ctx := context.Background()

	require.Error(t, MigrateDown(ctx, conn, 0))
	require.Error(t, MigrateDown(ctx, conn, -1))
}

func TestMigrateDown_TooMany(t *testing.T) {
	database := openTestDB(t)

	migrations, err := loadMigrations()
	require.NoError(t, err)

	err = MigrateDown(context.Background(), database.Conn(), len(migrations)+1)
	assert.Error(t, err)
}

func TestLoadMigrations_Valid(t *testing.T) {
	migrations, err := loadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i := 1; i < len(migrations); i++ {
		assert.Greater(t, migrations[i].Version, migrations[i-1].Version)
	}

	for _, m := range migrations {
		assert.NotEmpty(t, m.UpSQL, "migration %d up SQL", m.Version)
		assert.NotEmpty(t, m.DownSQL, "migration %d down SQL", m.Version)
		assert.NotEmpty(t, m.Name, "migration %d name", m.Version)
	}
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		filename      string
		wantVersion   int
		wantName      string
		wantDirection string
		wantErr       bool
	}{
		{"0001_sessions.up.sql", 1, "sessions", "up", false},
		{"0001_sessions.down.sql", 1, "sessions", "down", false},
		{"0002_result_lines.up.sql", 2, "result_lines", "up", false},
		{"0100_big_version.down.sql", 100, "big_version", "down", false},
		{"bad.sql", 0, "", "", true},
		{"0001_sessions.sql", 0, "", "", true},
		{"0000_zero.up.sql", 0, "", "", true},
		{"-1_negative.up.sql", 0, "", "", true},
		{"abc_notnumber.up.sql", 0, "", "", true},
		{"0001_.up.sql", 0, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, direction, err := parseFilename(tt.filename)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantDirection, direction)
		})
	}
}
