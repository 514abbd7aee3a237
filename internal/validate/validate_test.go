package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpl-au/docstore/internal/path"
)

func TestPath(t *testing.T) {
	got, err := Path("/posts/hello.md", 0)
	require.NoError(t, err)
	assert.Equal(t, "posts/hello", got)

	_, err = Path("", 0)
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = Path("a\x00b", 0)
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = Path("../x", 0)
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.ErrorIs(t, err, path.ErrInvalid)

	_, err = Path(strings.Repeat("a", 11), 10)
	assert.ErrorIs(t, err, ErrPathTooLong)
	assert.ErrorIs(t, err, path.ErrTooLong)
}

func TestContent(t *testing.T) {
	assert.ErrorIs(t, Content(nil, 0), ErrContentRequired)

	empty := ""
	assert.NoError(t, Content(&empty, 0))

	body := "hello"
	assert.NoError(t, Content(&body, 5))
	assert.ErrorIs(t, Content(&body, 4), ErrContentTooLarge)
	assert.NoError(t, Content(&body, 0))
}

func TestRelation(t *testing.T) {
	f, to, err := Relation("cites", "a.md", "/b")
	require.NoError(t, err)
	assert.Equal(t, "a", f)
	assert.Equal(t, "b", to)

	_, _, err = Relation("", "a", "b")
	assert.ErrorIs(t, err, ErrInvalidRelation)

	_, _, err = Relation("cites", "a", "a.md")
	assert.ErrorIs(t, err, ErrInvalidRelation)

	_, _, err = Relation("cites", "", "b")
	assert.ErrorIs(t, err, ErrInvalidPath)
}
