package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"menucast/internal/config"
	"menucast/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithSampleMenu()}, opts...)...)

	var b strings.Builder
	fmt.Fprintln(&b, "[paths]")
	fmt.Fprintf(&b, "build_dir = %q\n", cfg.Paths.BuildDir)
	fmt.Fprintf(&b, "menu_dir = %q\n", cfg.Paths.MenuDir)
	fmt.Fprintf(&b, "data_dir = %q\n", cfg.Paths.DataDir)
	fmt.Fprintf(&b, "log_dir = %q\n", cfg.Paths.LogDir)
	fmt.Fprintf(&b, "state_dir = %q\n", cfg.Paths.StateDir)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "[minimax]")
	fmt.Fprintln(&b, `api_key = "test"`)
	fmt.Fprintln(&b, `base_url = "http://127.0.0.1:1"`)

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := os.WriteFile(configPath, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, text, substr string) {
	t.Helper()
	if !strings.Contains(text, substr) {
		t.Fatalf("expected output to contain %q\nfull output:\n%s", substr, text)
	}
}
