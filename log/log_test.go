package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func testLogger(lvl Lvl, f Format) (Logger, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	l := New()
	l.SetHandler(LvlFilterHandler(lvl, StreamHandler(buf, f)))
	return l, buf
}

func TestLogfmtOutput(t *testing.T) {
	l, buf := testLogger(LvlInfo, LogfmtFormat())
	l.Info("registered participant", "index", 3, "active", true)
	out := buf.String()
	for _, want := range []string{"lvl=info", `msg="registered participant"`, "index=3", "active=true"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}

func TestLevelFilter(t *testing.T) {
	l, buf := testLogger(LvlWarn, LogfmtFormat())
	l.Info("dropped")
	l.Debug("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected filtered output, got %q", buf.String())
	}
	l.Error("kept", "err", errors.New("boom"))
	if !strings.Contains(buf.String(), "err=boom") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestContextInheritance(t *testing.T) {
	l, buf := testLogger(LvlTrace, LogfmtFormat())
	child := l.New("module", "matching")
	child.Debug("scan", "batch", 1)
	out := buf.String()
	if !strings.Contains(out, "module=matching") || !strings.Contains(out, "batch=1") {
		t.Fatalf("missing context in %q", out)
	}
}

func TestOddContextNormalized(t *testing.T) {
	l, buf := testLogger(LvlTrace, LogfmtFormat())
	l.Info("odd", "lonely")
	if !strings.Contains(buf.String(), errorKey) {
		t.Fatalf("expected normalization marker in %q", buf.String())
	}
}

func TestLvlFromString(t *testing.T) {
	for in, want := range map[string]Lvl{"trace": LvlTrace, "dbug": LvlDebug, "info": LvlInfo, "warn": LvlWarn, "eror": LvlError, "crit": LvlCrit} {
		have, err := LvlFromString(in)
		if err != nil || have != want {
			t.Fatalf("LvlFromString(%q) = %v, %v", in, have, err)
		}
	}
	if _, err := LvlFromString("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestJSONFormat(t *testing.T) {
	l, buf := testLogger(LvlInfo, JSONFormat())
	l.Info("json", "count", 2)
	if !strings.Contains(buf.String(), `"count":2`) {
		t.Fatalf("unexpected json output %q", buf.String())
	}
}
