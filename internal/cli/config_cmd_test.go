package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitAndShow(t *testing.T) {
	env := newTestEnv(t)
	cfgPath := filepath.Join(env.dir, "vidrank.yaml")

	output, err := env.run(t, "", "config", "init", "--config", cfgPath, "--catalog", env.csvPath)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(output, cfgPath) {
		t.Errorf("Expected written path in output, got %q", output)
	}

	if _, err := env.run(t, "", "config", "init", "--config", cfgPath); err == nil {
		t.Error("Expected init to refuse overwriting without --force")
	}
	if _, err := env.run(t, "", "config", "init", "--config", cfgPath, "--force"); err != nil {
		t.Fatalf("config init --force failed: %v", err)
	}
	if _, err := os.Stat(cfgPath + ".bak"); err != nil {
		t.Errorf("Expected a backup after --force: %v", err)
	}

	t.Setenv("VIDRANK_SERVER__ADDR", ":9999")
	output, err = env.run(t, "", "config", "show", "--config", cfgPath)
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, expected := range []string{"catalog:", "classifier:", "cleanup_cron", "9999"} {
		if !strings.Contains(output, expected) {
			t.Errorf("config show missing %q:\n%s", expected, output)
		}
	}
}

func TestConfigInitDefaultPath(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.run(t, "", "config", "init"); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.dir, ".vidrank.yaml")); err != nil {
		t.Errorf("Expected ~/.vidrank.yaml to be written: %v", err)
	}
}

func TestConfigPathPrecedence(t *testing.T) {
	env := newTestEnv(t)

	opts := &globalOptions{}
	path, err := opts.path()
	if err != nil {
		t.Fatalf("path() failed: %v", err)
	}
	if path != filepath.Join(env.dir, ".vidrank.yaml") {
		t.Errorf("Expected default path, got %q", path)
	}

	t.Setenv("VIDRANK_CONFIG", "/etc/vidrank.yaml")
	if path, _ := opts.path(); path != "/etc/vidrank.yaml" {
		t.Errorf("Expected env path, got %q", path)
	}

	opts.configPath = "./local.yaml"
	if path, _ := opts.path(); path != "./local.yaml" {
		t.Errorf("Expected flag path, got %q", path)
	}
}
