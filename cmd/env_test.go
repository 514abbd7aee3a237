// The cmd/ package holds CLI integration tests that exercise the full
// stack: command parsing -> extension -> service -> backend. Each test
// builds the binary once and runs it in a fresh project directory with an
// isolated HOME, so the global config and audit log never leak between
// tests.

package cmd

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	binaryPath string
	buildOnce  sync.Once
	buildErr   error
)

// buildBinary compiles the docstore binary once for all tests.
func buildBinary(t *testing.T) string {
	t.Helper()

	buildOnce.Do(func() {
		tmpDir, err := os.MkdirTemp("", "docstore-test-bin-*")
		if err != nil {
			buildErr = err
			return
		}

		binaryName := "docstore"
		if os.PathSeparator == '\\' {
			binaryName = "docstore.exe"
		}
		binaryPath = filepath.Join(tmpDir, binaryName)

		projectRoot := filepath.Dir(mustGetwd())
		cmd := exec.Command("go", "build", "-o", binaryPath, ".")
		cmd.Dir = projectRoot
		if out, err := cmd.CombinedOutput(); err != nil {
			buildErr = &buildError{err: err, output: string(out)}
			return
		}
	})

	if buildErr != nil {
		t.Fatalf("failed to build binary: %v", buildErr)
	}
	return binaryPath
}

type buildError struct {
	err    error
	output string
}

func (e *buildError) Error() string {
	return e.err.Error() + "\n" + e.output
}

func mustGetwd() string {
	dir, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return dir
}

// testEnv holds test environment state.
type testEnv struct {
	t      *testing.T
	dir    string
	home   string
	binary string
}

// newTestEnv creates a temporary directory with an initialised project on
// the given backend.
func newTestEnv(t *testing.T, backend string) *testEnv {
	t.Helper()
	env := newBareEnv(t)
	env.run("init", "--backend", backend)
	return env
}

// newBareEnv creates a temporary directory with no project.
func newBareEnv(t *testing.T) *testEnv {
	t.Helper()
	return &testEnv{t: t, dir: t.TempDir(), home: t.TempDir(), binary: buildBinary(t)}
}

func (e *testEnv) command(args ...string) *exec.Cmd {
	cmd := exec.Command(e.binary, args...)
	cmd.Dir = e.dir
	env := []string{"HOME=" + e.home, "USERPROFILE=" + e.home}
	for _, kv := range os.Environ() {
		switch {
		case strings.HasPrefix(kv, "HOME="), strings.HasPrefix(kv, "USERPROFILE="),
			strings.HasPrefix(kv, "DOCSTORE_"):
			continue
		}
		env = append(env, kv)
	}
	cmd.Env = env
	return cmd
}

// run executes docstore with the given args and returns its output.
func (e *testEnv) run(args ...string) string {
	e.t.Helper()
	out, err := e.runErr(args...)
	if err != nil {
		e.t.Fatalf("docstore %v failed: %v\noutput: %s", args, err, out)
	}
	return out
}

// runErr executes docstore and returns its output and any error.
func (e *testEnv) runErr(args ...string) (string, error) {
	e.t.Helper()
	out, err := e.command(args...).CombinedOutput()
	return string(out), err
}

// runStdout executes docstore and returns stdout alone, for JSON parsing.
func (e *testEnv) runStdout(args ...string) string {
	e.t.Helper()
	cmd := e.command(args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		e.t.Fatalf("docstore %v failed: %v\nstderr: %s", args, err, stderr.String())
	}
	return string(out)
}

// runStdin executes docstore with stdin input.
func (e *testEnv) runStdin(input string, args ...string) string {
	e.t.Helper()
	cmd := e.command(args...)
	cmd.Stdin = strings.NewReader(input)
	out, err := cmd.CombinedOutput()
	if err != nil {
		e.t.Fatalf("docstore %v failed: %v\noutput: %s", args, err, out)
	}
	return string(out)
}

// json runs docstore with -o json and decodes stdout into v.
func (e *testEnv) json(v any, args ...string) {
	e.t.Helper()
	out := e.runStdout(append(args, "-o", "json")...)
	require.NoError(e.t, json.Unmarshal([]byte(out), v), "output: %s", out)
}

// contains checks if output contains expected string.
func (e *testEnv) contains(output, expected string) {
	e.t.Helper()
	assert.Contains(e.t, output, expected)
}

// equals checks if output equals expected string (trimmed).
func (e *testEnv) equals(output, expected string) {
	e.t.Helper()
	assert.Equal(e.t, strings.TrimSpace(expected), strings.TrimSpace(output))
}

// backends lists every backend the record tests run against.
var backends = []string{"relational", "git", "analytical"}

// forEachBackend runs fn in a fresh project per backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, env *testEnv)) {
	t.Helper()
	for _, b := range backends {
		t.Run(b, func(t *testing.T) {
			fn(t, newTestEnv(t, b))
		})
	}
}

// runStdoutIgnoreExit feeds input on stdin and returns stdout regardless
// of the exit status, for asserting JSON error bodies.
func (e *testEnv) runStdoutIgnoreExit(input string, args ...string) string {
	e.t.Helper()
	cmd := e.command(args...)
	cmd.Stdin = strings.NewReader(input)
	out, _ := cmd.Output()
	return string(out)
}

// decode unmarshals JSON output into v.
func (e *testEnv) decode(out string, v any) {
	e.t.Helper()
	require.NoError(e.t, json.Unmarshal([]byte(out), v), "output: %s", out)
}
