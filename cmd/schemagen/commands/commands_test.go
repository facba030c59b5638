package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/schemagen/config"
	"github.com/teranos/schemagen/errors"
)

// project writes a config next to a copy of the sample model
func project(t *testing.T, targets string) string {
	t.Helper()
	dir := t.TempDir()

	model, err := os.ReadFile(filepath.Join("..", "..", "..", "schema", "testdata", "sample.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.yaml"), model, 0o644))

	cfg := "model = \"model.yaml\"\noutput = \"out\"\ntargets = " + targets + "\n"
	path := filepath.Join(dir, "schemagen.toml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func execute(args ...string) (string, error) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestGenerateThenCheck(t *testing.T) {
	cfgPath := project(t, `["python", "typescript"]`)
	out := filepath.Join(filepath.Dir(cfgPath), "out")

	_, err := execute("generate", "-c", cfgPath)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "python", "common.py"))
	assert.DirExists(t, filepath.Join(out, "typescript"))

	_, err = execute("check", "-c", cfgPath)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(out, "python", "common.py"), []byte("# edited\n"), 0o644))
	_, err = execute("check", "-c", cfgPath)
	require.Error(t, err)
	assert.True(t, errors.IsOutOfDateError(err))
	assert.Equal(t, ExitOutOfDate, ExitCode(err))
}

func TestBackendFlagOverridesConfig(t *testing.T) {
	cfgPath := project(t, `["python"]`)
	out := filepath.Join(t.TempDir(), "elsewhere")

	_, err := execute("generate", "-c", cfgPath, "-b", "typescript", "-o", out)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(out, "typescript"))
	assert.NoDirExists(t, filepath.Join(out, "python"))
}

func TestInvalidConfig(t *testing.T) {
	cfgPath := project(t, `["cobol"]`)

	_, err := execute("generate", "-c", cfgPath)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfigError(err))
	assert.Equal(t, ExitBadRequest, ExitCode(err))
}

func TestGenerationFailureWritesNothing(t *testing.T) {
	cfgPath := project(t, `["python"]`)
	dir := filepath.Dir(cfgPath)
	broken := "modules:\n  - name: m\n    declarations:\n      - kind: alias\n        name: A\n        target: missing.Thing\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.yaml"), []byte(broken), 0o644))

	_, err := execute("generate", "-c", cfgPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.NoDirExists(t, filepath.Join(dir, "out"))
}

func TestVersion(t *testing.T) {
	out, err := execute("version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"version": "dev"`)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitFailure, ExitCode(errors.New("boom")))
	assert.Equal(t, ExitBadRequest, ExitCode(errors.NewInvalidConfigError("bad")))
	assert.Equal(t, ExitOutOfDate, ExitCode(errors.Wrap(errors.ErrOutOfDate, "check")))
}

func TestConfigShowRoundTrips(t *testing.T) {
	cfgPath := project(t, `["python", "golang"]`)

	out, err := execute("config", "show", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "# schemagen configuration\n")

	shown := filepath.Join(t.TempDir(), "shown.toml")
	require.NoError(t, os.WriteFile(shown, []byte(out), 0o644))
	cfg, err := config.Load(shown)
	require.NoError(t, err)
	assert.Equal(t, []string{"python", "golang"}, cfg.Targets)
	assert.Equal(t, "example.com/generated", cfg.Backends.Golang.ModulePath)
	assert.Equal(t, filepath.Join(filepath.Dir(cfgPath), "model.yaml"), cfg.Model)
}

func TestConfigShowFormats(t *testing.T) {
	cfgPath := project(t, `["typescript"]`)

	out, err := execute("config", "show", "-c", cfgPath, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"targets": [`)

	out, err = execute("config", "show", "-c", cfgPath, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "targets:\n    - typescript\n")

	_, err = execute("config", "show", "-c", cfgPath, "--format", "ini")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfigError(err))
}

func TestConfigWhere(t *testing.T) {
	cfgPath := project(t, `["python"]`)
	out, err := execute("config", "where", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, cfgPath)
}

func TestWatchFollowsModelMove(t *testing.T) {
	cfgPath := project(t, `["python"]`)
	dir := filepath.Dir(cfgPath)
	out := filepath.Join(dir, "out", "python")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watch(ctx, &runFlags{config: cfgPath}) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(out, "common.py"))
		return err == nil
	}, 10*time.Second, 50*time.Millisecond)

	module := func(name string) string {
		return "  - name: " + name + "\n    declarations:\n      - kind: record\n        name: Thing\n        fields:\n          - name: id\n            type: int\n"
	}
	moved := filepath.Join(dir, "models", "moved.yaml")
	require.NoError(t, os.Mkdir(filepath.Dir(moved), 0o755))
	require.NoError(t, os.WriteFile(moved, []byte("modules:\n"+module("first")), 0o644))
	require.NoError(t, os.WriteFile(cfgPath, []byte("model = \"models/moved.yaml\"\noutput = \"out\"\ntargets = [\"python\"]\n"), 0o644))

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(out, "first.py"))
		return err == nil
	}, 10*time.Second, 50*time.Millisecond)

	// Edits to the new model regenerate too
	require.NoError(t, os.WriteFile(moved, []byte("modules:\n"+module("first")+module("second")), 0o644))
	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(out, "second.py"))
		return err == nil
	}, 10*time.Second, 50*time.Millisecond)
}
