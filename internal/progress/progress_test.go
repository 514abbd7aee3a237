package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_NotTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, "Importing", 10)
	for range 10 {
		p.Increment()
		p.Print()
	}
	p.Done()
	assert.Equal(t, 10, p.Current())
	assert.Empty(t, buf.String())
}

func TestSpinner_NotTerminal(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "Vacuuming")
	s.Start()
	s.Tick()
	s.Stop()
	assert.Empty(t, buf.String())
}
