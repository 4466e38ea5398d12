package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/primitives/internal/errors"
	"github.com/vango-dev/primitives/internal/scenario"
	"github.com/vango-dev/primitives/pkg/masonry"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-dir", t.TempDir()}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeScenario(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: demo
fallback: none
steps:
  - name: initial
    items: [a, b, c]
  - name: rotate
    items: [b, c, a]
  - name: clear
    items: []
`), 0o644))
	return path
}

func TestReplay(t *testing.T) {
	out, err := execute(t, "replay", writeScenario(t))
	require.NoError(t, err)

	assert.Contains(t, out, "initial      [1:a 2:b 3:c]")
	assert.Contains(t, out, "rotate       [2:b 3:c 1:a]")
	assert.Contains(t, out, "clear        [4:none*]")
	assert.Contains(t, out, "kept=0 moved=3 rewritten=0 recycled=0 created=0 disposed=0")
}

func TestReplayJSON(t *testing.T) {
	out, err := execute(t, "replay", "--json", writeScenario(t))
	require.NoError(t, err)

	var rep scenario.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "demo", rep.Name)
	assert.Len(t, rep.Steps, 3)
}

func TestReplaySaveToFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REPORT_PATH", dir)

	_, err := execute(t, "replay", "--save", "--sink", "file", writeScenario(t))
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(dir, "demo-*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestReplayMissingFile(t *testing.T) {
	_, err := execute(t, "replay", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, "E202"))
}

func TestLayout(t *testing.T) {
	out, err := execute(t, "layout", "--columns", "2", "--json", "10", "20", "5")
	require.NoError(t, err)

	var res masonry.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []float64{15, 20}, res.ColumnHeights)

	_, err = execute(t, "layout", "ten")
	assert.True(t, errors.HasCode(err, "E501"))
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev", strings.TrimSpace(out))
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := execute(t, "--log-level", "loud", "version")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, "E101"))
}
