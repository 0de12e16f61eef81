package sdfsandbox

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterLoggerLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWriterLogger(&out, &errOut, "sdf", false)

	l.Debugf("hidden %d", 1)
	l.Infof("volume %d", 64)
	l.Warnf("frame %d skipped", 3)
	l.Errorf("boom")

	if strings.Contains(out.String(), "hidden") {
		t.Errorf("debug output written while disabled: %q", out.String())
	}
	if !strings.Contains(out.String(), "[sdf] INFO: volume 64") {
		t.Errorf("info line missing: %q", out.String())
	}
	if !strings.Contains(errOut.String(), "[sdf] WARN: frame 3 skipped") {
		t.Errorf("warn line missing: %q", errOut.String())
	}
	if !strings.Contains(errOut.String(), "ERROR: boom") {
		t.Errorf("error line missing: %q", errOut.String())
	}
	if strings.Contains(out.String(), "WARN") {
		t.Errorf("warnings belong on the error writer: %q", out.String())
	}

	l.SetDebug(true)
	if !l.DebugEnabled() {
		t.Fatalf("SetDebug(true) had no effect")
	}
	l.Debugf("shown")
	if !strings.Contains(out.String(), "DEBUG: shown") {
		t.Errorf("debug line missing: %q", out.String())
	}
}

func TestWriterLoggerThreshold(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWriterLogger(&out, &errOut, "", true)
	assert.Equal(t, LevelDebug, l.Level())

	l.SetLevel(LevelWarn)
	assert.False(t, l.DebugEnabled())
	l.Infof("quiet")
	l.Warnf("loud")
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "WARN: loud")

	l.SetDebug(false)
	assert.Equal(t, LevelInfo, l.Level())
	assert.Equal(t, "LogLevel(7)", LogLevel(7).String())
}

func TestWriterLoggerWithoutPrefix(t *testing.T) {
	var out bytes.Buffer
	l := NewWriterLogger(&out, &out, "", false)
	l.Infof("plain")
	if strings.Contains(out.String(), "[") {
		t.Errorf("unexpected prefix: %q", out.String())
	}
}

func TestLoggerWithPrefixSharesThreshold(t *testing.T) {
	var out bytes.Buffer
	root := NewWriterLogger(&out, &out, "sdf", false)
	watch := root.WithPrefix("watch")
	assert.Equal(t, "sdf/watch", watch.Prefix())
	assert.Equal(t, "sdf", root.Prefix())

	watch.Debugf("hidden")
	root.SetDebug(true)
	watch.Debugf("reload %s", "scene.yaml")
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "[sdf/watch] DEBUG: reload scene.yaml")

	assert.Equal(t, "solo", NewWriterLogger(&out, &out, "", false).WithPrefix("solo").Prefix())
	assert.Same(t, root.level, root.WithPrefix("").level)
}

func TestSubLogger(t *testing.T) {
	var out bytes.Buffer
	sub := subLogger(NewWriterLogger(&out, &out, "sdf", false), "watch")
	sub.Warnf("gone")
	assert.Contains(t, out.String(), "[sdf/watch] WARN: gone")

	assert.NotNil(t, subLogger(nil, "watch"))
	assert.Equal(t, NewNopLogger(), subLogger(NewNopLogger(), "watch"))
}

func TestNopLogger(t *testing.T) {
	l := orNop(nil)
	l.SetDebug(true)
	if l.DebugEnabled() {
		t.Errorf("nop logger should never enable debug")
	}
	l.Errorf("ignored")
}
