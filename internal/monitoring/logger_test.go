package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *[]string {
	t.Helper()
	original := Logf
	t.Cleanup(func() {
		Logf = original
		SetDebug(false)
	})
	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	return &lines
}

func TestSetLogger(t *testing.T) {
	lines := capture(t)
	Logf("fix %d", 1)
	assert.Equal(t, []string{"fix 1"}, *lines)

	SetLogger(nil)
	Logf("muted")
	assert.Len(t, *lines, 1)
}

func TestDebugf(t *testing.T) {
	lines := capture(t)
	Debugf("hidden")
	assert.Empty(t, *lines)
	assert.False(t, DebugEnabled())

	SetDebug(true)
	assert.True(t, DebugEnabled())
	Debugf("shown %s", "now")
	assert.Equal(t, []string{"shown now"}, *lines)
}

func TestPrefixed(t *testing.T) {
	logf := Prefixed("session")
	lines := capture(t)
	logf("started at %s", "07:30")
	assert.Equal(t, []string{"[session] started at 07:30"}, *lines)
}
