package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tunedrop/tunedrop/internal/shared"
	tu "github.com/tunedrop/tunedrop/internal/testing"
	"github.com/urfave/cli/v3"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("register exposes all commands", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})

		commands := runner.register()
		names := map[string]bool{}
		for _, c := range commands {
			names[c.Name] = true
		}

		for _, want := range []string{"run", "setup", "probe", "history"} {
			if !names[want] {
				t.Errorf("command %q not registered", want)
			}
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writeJSON(map[string]int{"a": 1}, false); err != nil {
			t.Fatalf("writeJSON() error = %v", err)
		}
		if got := output.String(); got != "{\"a\":1}\n" {
			t.Errorf("writeJSON() output = %q", got)
		}
	})

	t.Run("writeJSON fails on broken writer", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

		if err := runner.writeJSON(map[string]int{"a": 1}, false); err == nil {
			t.Error("expected error from broken writer")
		}
	})
}

func TestSetupConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Output: output})

	cmd := setupCommand(runner)
	if err := cmd.Run(context.Background(), []string{"setup", "config", "--config", configPath}); err != nil {
		t.Fatalf("setup config failed: %v", err)
	}

	tu.AssertFileExists(t, configPath)

	content := tu.MustReadFile(t, configPath)
	if !strings.Contains(content, "[telegram]") {
		t.Error("created config lacks the telegram section")
	}

	// Re-running must refuse to clobber an existing file.
	if err := cmd.Run(context.Background(), []string{"setup", "config", "--config", configPath}); err == nil {
		t.Error("expected error when config already exists")
	}
}

func TestSetupDatabase(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	dbPath := filepath.Join(dir, "history.db")

	tu.MustWriteFile(t, configPath, "[database]\npath = \""+dbPath+"\"\n")

	runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

	cmd := setupCommand(runner)
	if err := cmd.Run(context.Background(), []string{"setup", "database", "--config", configPath}); err != nil {
		t.Fatalf("setup database failed: %v", err)
	}

	tu.AssertFileExists(t, dbPath)
}

func TestSetupCookiesRequiresInput(t *testing.T) {
	runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

	cmd := setupCommand(runner)
	err := cmd.Run(context.Background(), []string{"setup", "cookies"})
	if !errors.Is(err, shared.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestRunRequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

	var cmd *cli.Command
	for _, c := range runner.register() {
		if c.Name == "run" {
			cmd = c
		}
	}

	err := cmd.Run(context.Background(), []string{"run", "--config", "does-not-exist.toml"})
	if !errors.Is(err, shared.ErrMissingToken) {
		t.Fatalf("error = %v, want ErrMissingToken", err)
	}
}

func TestProbeRejectsEmptyInput(t *testing.T) {
	runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

	cmd := probeCommand(runner)
	err := cmd.Run(context.Background(), []string{"probe"})
	if !errors.Is(err, shared.ErrEmptyQuery) {
		t.Fatalf("error = %v, want ErrEmptyQuery", err)
	}
}

func TestHistoryEmptyDatabase(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	dbPath := filepath.Join(dir, "history.db")

	tu.MustWriteFile(t, configPath, "[database]\npath = \""+dbPath+"\"\n")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Output: output})

	if err := setupCommand(runner).Run(context.Background(), []string{"setup", "database", "--config", configPath}); err != nil {
		t.Fatalf("setup database failed: %v", err)
	}

	if err := historyCommand(runner).Run(context.Background(), []string{"history", "--config", configPath}); err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(output.String(), "No deliveries recorded yet.") {
		t.Errorf("output = %q, want empty-history notice", output.String())
	}
}
