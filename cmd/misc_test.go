package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	env := newTestEnv(t, "relational")

	env.equals(env.run("config", "backend.kind"), "relational")
	env.contains(env.run("config", "processor.limit", "25"), "processor.limit = 25 (local)")
	env.equals(env.run("config", "processor.limit"), "25")

	var all map[string]any
	env.json(&all, "config")
	assert.NotEmpty(t, all)

	_, err := env.runErr("config", "no.such.key")
	assert.Error(t, err)
	_, err = env.runErr("config", "processor.lease", "forever")
	assert.Error(t, err)
	_, err = env.runErr("config", "--local", "--global")
	assert.Error(t, err)
}

func TestConfig_Global(t *testing.T) {
	env := newBareEnv(t)
	env.run("config", "--global", "author.name", "ann")
	assert.FileExists(t, filepath.Join(env.home, ".docstore", "config.yaml"))
	env.equals(env.run("config", "--global", "author.name"), "ann")

	// Outside a project the global scope is read.
	env.equals(env.run("config", "author.name"), "ann")
}

func TestGuide(t *testing.T) {
	env := newBareEnv(t)
	out := env.run("guide")
	env.contains(out, "records")

	out = env.run("guide", "records")
	assert.NotEmpty(t, out)

	_, err := env.runErr("guide", "no-such-topic")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	env := newBareEnv(t)
	env.contains(env.run("version"), "Go Version:")

	var info struct {
		GoVersion string   `json:"go_version"`
		Backends  []string `json:"backends"`
	}
	env.json(&info, "version")
	assert.NotEmpty(t, info.GoVersion)
	assert.Equal(t, backends, info.Backends)
}

func TestImportExport(t *testing.T) {
	src := newTestEnv(t, "relational")
	src.run("put", "posts/hello", "hello", "--type", "post", "--data", `{"title": "Hello"}`)
	src.run("put", "posts/bye", "bye")

	out := filepath.Join(t.TempDir(), "export")
	src.contains(src.run("export", out), "Exported 2 record(s)")
	assert.FileExists(t, filepath.Join(out, "posts", "hello.md"))

	_, err := src.runErr("export", out)
	assert.Error(t, err, "existing files need --force")
	src.run("export", out, "--force")

	dst := newTestEnv(t, "git")
	dry := dst.run("import", out, "--dry-run")
	dst.contains(dry, "Would import")
	_, err = dst.runErr("get", "posts/hello")
	assert.Error(t, err)

	dst.contains(dst.run("import", out, "--prefix", "site"), "Imported 2 record(s)")
	var got docJSON
	dst.json(&got, "get", "site/posts/hello")
	assert.Equal(t, "post", got.Type)
	assert.Equal(t, "Hello", got.Data["title"])
	assert.Equal(t, "hello", got.Content)
}

func TestImport_Empty(t *testing.T) {
	env := newTestEnv(t, "relational")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	env.contains(env.run("import", dir), "No markdown files found")
}
