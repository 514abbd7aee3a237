package log

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useTempDB points the logger at a temp database for the test.
func useTempDB(t *testing.T) {
	t.Helper()
	tmpDir := t.TempDir()
	orig := dbPathFunc
	dbPathFunc = func() string {
		return filepath.Join(tmpDir, "log", "test.db")
	}
	t.Cleanup(func() {
		Close()
		dbPathFunc = orig
	})
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", DBPath())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLogger(t *testing.T) {
	useTempDB(t)

	t.Run("open and close", func(t *testing.T) {
		require.NoError(t, Open())
		defer Close()
		assert.FileExists(t, DBPath())
	})

	t.Run("log entry", func(t *testing.T) {
		require.NoError(t, Open())
		defer Close()
		SetProject("/test/project")

		Log(Entry{
			Source:        "document:get",
			Actor:         "test-user",
			Action:        "read",
			ID:            "docs/readme",
			ResultVersion: "3",
			Success:       true,
		})

		db := openDB(t)
		var source, action, id, version, project string
		var success int
		err := db.QueryRow(`SELECT source, action, record_id, result_version, project, success
			FROM log ORDER BY id DESC LIMIT 1`).
			Scan(&source, &action, &id, &version, &project, &success)
		require.NoError(t, err)
		assert.Equal(t, "document:get", source)
		assert.Equal(t, "read", action)
		assert.Equal(t, "docs/readme", id)
		assert.Equal(t, "3", version)
		assert.Equal(t, hash("/test/project"), project)
		assert.Equal(t, 1, success)
	})

	t.Run("log without logger is noop", func(t *testing.T) {
		Close()
		Log(Entry{Source: "test:cmd", Action: "test", Success: true})
	})

	t.Run("open is idempotent", func(t *testing.T) {
		require.NoError(t, Open())
		require.NoError(t, Open())
		Close()
	})
}

func TestHash(t *testing.T) {
	h1 := hash("/home/user/project")
	h2 := hash("/home/user/project")
	h3 := hash("/home/user/other")

	assert.Equal(t, h1, h2, "same input should produce same hash")
	assert.NotEqual(t, h1, h3, "different input should produce different hash")
	assert.Len(t, h1, 16, "BLAKE2b-64 should produce 16 hex chars")
}

func TestDBPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	orig := dbPathFunc
	dbPathFunc = defaultDBPath
	defer func() { dbPathFunc = orig }()

	assert.Equal(t, filepath.Join(home, ".docstore", "log", "docstore-log.db"), DBPath())
}

func TestBuilder(t *testing.T) {
	useTempDB(t)

	t.Run("success", func(t *testing.T) {
		require.NoError(t, Open())
		defer Close()

		Event("document:set", "write").
			Actor("alice").
			NS("tenant").
			ID("posts/hello").
			Version("4").
			ResultVersion("5").
			Write(nil)

		var actor, ns, id, version, result string
		var success int
		err := openDB(t).QueryRow(`SELECT actor, ns, record_id, version, result_version, success
			FROM log ORDER BY id DESC LIMIT 1`).
			Scan(&actor, &ns, &id, &version, &result, &success)
		require.NoError(t, err)
		assert.Equal(t, "alice", actor)
		assert.Equal(t, "tenant", ns)
		assert.Equal(t, "posts/hello", id)
		assert.Equal(t, "4", version)
		assert.Equal(t, "5", result)
		assert.Equal(t, 1, success)
	})

	t.Run("error", func(t *testing.T) {
		require.NoError(t, Open())
		defer Close()

		Event("document:set", "write").ID("x").Write(errors.New("conflict"))

		var success int
		var msg string
		err := openDB(t).QueryRow(`SELECT success, error FROM log ORDER BY id DESC LIMIT 1`).
			Scan(&success, &msg)
		require.NoError(t, err)
		assert.Equal(t, 0, success)
		assert.Equal(t, "conflict", msg)
	})

	t.Run("detail", func(t *testing.T) {
		require.NoError(t, Open())
		defer Close()

		Event("document:search", "search").
			Detail("query", "TODO").
			Detail("count", 42).
			Write(nil)

		var detail string
		err := openDB(t).QueryRow(`SELECT detail FROM log ORDER BY id DESC LIMIT 1`).Scan(&detail)
		require.NoError(t, err)
		assert.Contains(t, detail, "TODO")
		assert.Contains(t, detail, "42")
	})
}
