package observability

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteTextfile(t *testing.T) {
	RunsTotal.WithLabelValues("success").Inc()
	path := filepath.Join(t.TempDir(), "autoload.prom")

	if err := WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `autoload_runs_total{status="success"}`) {
		t.Fatalf("expected runs counter in textfile, got:\n%s", data)
	}
}

func TestSetupTracing_Disabled(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	_, span := Tracer.Start(context.Background(), "noop")
	span.End()
}
