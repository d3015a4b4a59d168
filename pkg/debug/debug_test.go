package debug

import (
	"bytes"
	"strings"
	"testing"
)

func TestLog_DisabledIsSilent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetEnabled(false)

	Log("hidden %d", 1)
	Section("hidden")
	LogEnterExit("hidden")()

	if buf.Len() != 0 {
		t.Errorf("disabled logger wrote %q", buf.String())
	}
}

func TestLog_EnabledWrites(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetEnabled(true)
	defer SetEnabled(false)

	Log("fetch %s", "/api/test")
	LogIf(false, "skipped")
	Section("bootstrap")

	out := buf.String()
	if !strings.Contains(out, "fetch /api/test") {
		t.Errorf("missing log line in %q", out)
	}
	if strings.Contains(out, "skipped") {
		t.Errorf("LogIf(false) wrote output: %q", out)
	}
	if !strings.Contains(out, "=== bootstrap ===") {
		t.Errorf("missing section header in %q", out)
	}
	if !strings.Contains(out, prefix) {
		t.Errorf("missing prefix in %q", out)
	}
}
