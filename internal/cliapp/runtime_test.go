package cliapp

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"autoload/internal/core/config"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func installFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "typo3conf/ext/news/composer.json", `{"autoload":{"psr-4":{"Acme\\News\\":"Classes/"}}}`)
	writeFile(t, root, "typo3conf/ext/news/Classes/Foo.php", "<?php\nnamespace Acme\\News;\nclass Foo {}\n")
	return root
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"-env-file", ""}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCLI(t, "-version")
	if code != 0 || !strings.HasPrefix(out, "autoload v") {
		t.Fatalf("unexpected version output %d %q", code, out)
	}
}

func TestRun_RejectsUnknownFlagAndArguments(t *testing.T) {
	if code, _, _ := runCLI(t, "-nope"); code != 2 {
		t.Fatalf("expected exit 2 for unknown flag, got %d", code)
	}
	if code, _, _ := runCLI(t, "extra"); code != 2 {
		t.Fatalf("expected exit 2 for positional args, got %d", code)
	}
}

func TestRun_GeneratesArtifacts(t *testing.T) {
	root := installFixture(t)

	code, out, errOut := runCLI(t, "-root", root)
	if code != 0 {
		t.Fatalf("expected success, got %d: %s", code, errOut)
	}
	if !strings.Contains(out, "classes:  1") {
		t.Fatalf("expected summary on stdout, got %q", out)
	}
	data, err := os.ReadFile(filepath.Join(root, "typo3conf", "autoload", "autoload_classmap.php"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `'Acme\\News\\Foo' => $typo3InstallDir . 'typo3conf/ext/news/Classes/Foo.php',`) {
		t.Fatalf("unexpected class map:\n%s", data)
	}
}

func TestRun_DryRunAndFormat(t *testing.T) {
	root := installFixture(t)

	code, out, _ := runCLI(t, "-root", root, "-dry-run", "-format", "json")
	if code != 0 {
		t.Fatalf("expected success, got %d", code)
	}
	if !strings.Contains(out, "nothing written") {
		t.Fatalf("expected dry-run summary, got %q", out)
	}
	if _, err := os.Stat(filepath.Join(root, "typo3conf", "autoload")); !os.IsNotExist(err) {
		t.Fatalf("dry run must not create the output directory, stat err = %v", err)
	}

	if code, _, _ := runCLI(t, "-root", root, "-format", "json"); code != 0 {
		t.Fatalf("expected success, got %d", code)
	}
	if _, err := os.Stat(filepath.Join(root, "typo3conf", "autoload", "autoload_classmap.json")); err != nil {
		t.Fatalf("expected json artifact: %v", err)
	}
}

func TestRun_FailedGenerationExitsNonZero(t *testing.T) {
	root := installFixture(t)
	writeFile(t, root, "typo3conf/ext/news/Classes/Copy.php", "<?php\nnamespace Acme\\News;\nclass Foo {}\n")

	code, _, errOut := runCLI(t, "-root", root)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(errOut, "generation failed") {
		t.Fatalf("expected failure report on stderr, got %q", errOut)
	}
	if _, err := os.Stat(filepath.Join(root, "typo3conf", "autoload")); !os.IsNotExist(err) {
		t.Fatalf("failed run must not write artifacts, stat err = %v", err)
	}
}

func TestRun_History(t *testing.T) {
	root := installFixture(t)
	t.Setenv("AUTOLOAD_HISTORY_ENABLED", "true")

	if code, _, errOut := runCLI(t, "-root", root); code != 0 {
		t.Fatalf("expected success, got %d: %s", code, errOut)
	}
	code, out, _ := runCLI(t, "-root", root, "-history", "5")
	if code != 0 {
		t.Fatalf("expected success, got %d", code)
	}
	if !strings.Contains(out, "Generation history (1)") || !strings.Contains(out, "last successful:") {
		t.Fatalf("unexpected history output %q", out)
	}
}

func TestRun_ExplicitConfigMustExist(t *testing.T) {
	code, _, _ := runCLI(t, "-config", filepath.Join(t.TempDir(), "missing.toml"))
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
}

func TestRun_LoadsConfigFile(t *testing.T) {
	root := installFixture(t)
	cfgPath := filepath.Join(t.TempDir(), "autoload.toml")
	writeFile(t, filepath.Dir(cfgPath), "autoload.toml", "version = 1\n[paths]\ninstall_root = \""+filepath.ToSlash(root)+"\"\noutput_dir = \"generated\"\n")

	if code, _, errOut := runCLI(t, "-config", cfgPath); code != 0 {
		t.Fatalf("expected success, got %d: %s", code, errOut)
	}
	if _, err := os.Stat(filepath.Join(root, "generated", "autoload_psr4.php")); err != nil {
		t.Fatalf("expected artifact in configured output dir: %v", err)
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	applyFlagOverrides(cliOptions{root: "/srv/site", format: "json", metricsFile: "m.prom", history: 3}, cfg)

	if cfg.Paths.InstallRoot != "/srv/site" {
		t.Fatalf("unexpected install root %q", cfg.Paths.InstallRoot)
	}
	if cfg.Render.Format != "json" || cfg.Render.ClassMapFile != "autoload_classmap.json" {
		t.Fatalf("unexpected render config %+v", cfg.Render)
	}
	if cfg.Observability.MetricsFile != "m.prom" || !cfg.History.Enabled {
		t.Fatalf("unexpected overrides %+v %+v", cfg.Observability, cfg.History)
	}
}
