// git.go wraps git command execution for the content-addressed backend.
//
// Every call runs under exec.CommandContext with the client's timeout, so a
// hung git process (credential prompt, stuck hook) cannot stall a request.
// Writers serialize on a lock file inside .git so separate docstore
// processes sharing one working tree do not interleave commits.

package gitstore

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrLocked is returned when the repository lock cannot be acquired before
// the context expires.
var ErrLocked = errors.New("repository locked")

// Client runs git commands in a working tree.
type Client struct {
	Dir     string
	Logger  *slog.Logger
	Timeout time.Duration

	// Committer identity, passed with -c so no global git config is needed.
	Name  string
	Email string
}

// NewClient creates a client for the working tree at dir.
func NewClient(dir string, logger *slog.Logger, timeout time.Duration) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		Dir:     dir,
		Logger:  logger,
		Timeout: timeout,
		Name:    "docstore",
		Email:   "docstore@localhost",
	}
}

// Run executes git with args and returns trimmed stdout.
func (c *Client) Run(ctx context.Context, args ...string) (string, error) {
	out, err := c.run(ctx, nil, args...)
	return strings.TrimSpace(string(out)), err
}

// run executes git with optional stdin and returns raw stdout.
func (c *Client) run(ctx context.Context, stdin io.Reader, args ...string) ([]byte, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	c.Logger.Debug("executing git", "args", args, "dir", c.Dir)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.Dir
	cmd.Stdin = stdin
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("git %s: %w", args[0], ctxErr)
		}
		return stdout.Bytes(), &Error{Args: args, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return stdout.Bytes(), nil
}

// Error is a failed git invocation.
type Error struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("git %s failed: %v: %s", e.Args[0], e.Err, e.Stderr)
}

func (e *Error) Unwrap() error { return e.Err }

// exitCode returns the process exit code of a failed git command, or -1.
func exitCode(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

// Lock acquires the repository lock file, polling until ctx is done.
// The returned function releases it.
func (c *Client) Lock(ctx context.Context) (func(), error) {
	lockPath := filepath.Join(c.Dir, ".git", "docstore.lock")

	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL, 0o666)
		if err == nil {
			f.Close()
			return func() { os.Remove(lockPath) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrLocked, lockPath, ctx.Err())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Init initialises a repository whose HEAD points at branch. Safe to re-run
// on an existing repository.
func (c *Client) Init(ctx context.Context, branch string) error {
	if _, err := os.Stat(filepath.Join(c.Dir, ".git")); err == nil {
		return nil
	}
	if _, err := c.Run(ctx, "init", "-q"); err != nil {
		return err
	}
	_, err := c.Run(ctx, "symbolic-ref", "HEAD", "refs/heads/"+branch)
	return err
}

// CurrentBranch returns the branch HEAD points at.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	return c.Run(ctx, "symbolic-ref", "--short", "HEAD")
}

// HasCommits reports whether ref resolves to a commit. A freshly initialised
// repository has none.
func (c *Client) HasCommits(ctx context.Context, ref string) (bool, error) {
	_, err := c.Run(ctx, "rev-parse", "--verify", "-q", ref+"^{commit}")
	if err == nil {
		return true, nil
	}
	if exitCode(err) == 1 {
		return false, nil
	}
	return false, err
}

// Add stages files.
func (c *Client) Add(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	_, err := c.Run(ctx, append([]string{"add", "--"}, files...)...)
	return err
}

// Rm removes files from the working tree and the index.
func (c *Client) Rm(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	_, err := c.Run(ctx, append([]string{"rm", "-q", "-f", "--"}, files...)...)
	return err
}

// Commit records the staged changes.
func (c *Client) Commit(ctx context.Context, msg string) error {
	_, err := c.Run(ctx,
		"-c", "user.name="+c.Name,
		"-c", "user.email="+c.Email,
		"-c", "commit.gpgsign=false",
		"commit", "-q", "--no-verify", "-m", msg)
	return err
}

// Restore resets files in the index and working tree to ref, discarding a
// failed write. Files absent from ref are removed.
func (c *Client) Restore(ctx context.Context, ref string, files ...string) {
	for _, f := range files {
		if _, err := c.Run(ctx, "reset", "-q", ref, "--", f); err != nil {
			c.Logger.Debug("restore reset failed", "file", f, "error", err)
		}
		if _, err := c.Run(ctx, "checkout", "-q", ref, "--", f); err != nil {
			os.Remove(filepath.Join(c.Dir, filepath.FromSlash(f)))
		}
	}
}

// Entry is one blob in a tree listing.
type Entry struct {
	Mode string
	Type string
	Hash string
	Path string
}

// LsTree lists the blobs under ref. Recursive descends into subtrees;
// otherwise only the immediate entries of the given paths (a directory path
// ending in "/" lists its contents) are returned.
func (c *Client) LsTree(ctx context.Context, ref string, recursive bool, paths ...string) ([]Entry, error) {
	args := []string{"ls-tree", "-z", "--full-tree"}
	if recursive {
		args = append(args, "-r")
	}
	args = append(args, ref, "--")
	args = append(args, paths...)
	out, err := c.run(ctx, nil, args...)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for rec := range bytes.SplitSeq(out, []byte{0}) {
		if len(rec) == 0 {
			continue
		}
		meta, p, ok := bytes.Cut(rec, []byte{'\t'})
		if !ok {
			return nil, fmt.Errorf("ls-tree: malformed entry %q", rec)
		}
		fields := strings.Fields(string(meta))
		if len(fields) != 3 {
			return nil, fmt.Errorf("ls-tree: malformed entry %q", rec)
		}
		if fields[1] != "blob" {
			continue
		}
		entries = append(entries, Entry{Mode: fields[0], Type: fields[1], Hash: fields[2], Path: string(p)})
	}
	return entries, nil
}

// BlobHash returns the hash of path at ref, or "" if it does not exist.
func (c *Client) BlobHash(ctx context.Context, ref, path string) (string, error) {
	out, err := c.Run(ctx, "rev-parse", "--verify", "-q", ref+":"+path)
	if err != nil {
		if exitCode(err) == 1 || exitCode(err) == 128 {
			return "", nil
		}
		return "", err
	}
	return out, nil
}

// CatBlobs reads many objects in one git cat-file --batch invocation.
// Missing objects are absent from the result.
func (c *Client) CatBlobs(ctx context.Context, hashes []string) (map[string][]byte, error) {
	blobs := make(map[string][]byte, len(hashes))
	if len(hashes) == 0 {
		return blobs, nil
	}

	in := strings.Join(hashes, "\n") + "\n"
	out, err := c.run(ctx, strings.NewReader(in), "cat-file", "--batch")
	if err != nil {
		return nil, err
	}

	r := bufio.NewReader(bytes.NewReader(out))
	for range hashes {
		header, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("cat-file: read header: %w", err)
		}
		fields := strings.Fields(header)
		if len(fields) == 2 && fields[1] == "missing" {
			continue
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("cat-file: malformed header %q", header)
		}
		size, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("cat-file: bad size in %q: %w", header, err)
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("cat-file: read %s: %w", fields[0], err)
		}
		if _, err := r.Discard(1); err != nil { // trailing newline
			return nil, fmt.Errorf("cat-file: %w", err)
		}
		blobs[fields[0]] = body
	}
	return blobs, nil
}
