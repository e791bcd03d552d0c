package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNopTracer(t *testing.T) {
	tracer := NopTracer()
	ctx := context.Background()
	ctx2, span := tracer.StartSpan(ctx, "test")
	if ctx2 != ctx {
		t.Fatalf("nop tracer should return same context")
	}
	span.SetTag("key", "value")
	span.SetError(nil)
	span.Finish()
}

func TestSlogLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewTextLogger(&buf, "debug").With(String("run_id", "abc"))
	log.Debug("page mutated", Int("page", 2), Float64("height", 792), Bool("ok", true), Error("err", errors.New("boom")))
	out := buf.String()
	for _, want := range []string{"level=DEBUG", `msg="page mutated"`, "run_id=abc", "page=2", "height=792", "ok=true", "err=boom"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestSlogLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewTextLogger(&buf, "warn")
	log.Info("hidden")
	log.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if ParseLevel("nonsense").String() != "INFO" {
		t.Fatalf("expected INFO default")
	}
}
