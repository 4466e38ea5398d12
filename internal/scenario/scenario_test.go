package scenario

import (
	stderrors "errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/primitives/internal/errors"
)

func TestLoad(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "shuffle.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "shuffle", sc.Name)
	assert.Equal(t, "(empty)", sc.Fallback)
	require.Len(t, sc.Steps, 4)
	assert.Equal(t, []string{"c", "b", "a"}, sc.Steps[1].Items)
	assert.Empty(t, sc.Steps[2].Items)
	assert.Equal(t, "reverse", sc.StepName(1))
	assert.Equal(t, "step 4", sc.StepName(3))
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, "E202"))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		empty bool
	}{
		{name: "empty document", input: "", empty: true},
		{name: "no steps", input: "name: x\nsteps: []\n", empty: true},
		{name: "no name", input: "steps:\n  - items: [a]\n"},
		{name: "unknown key", input: "name: x\nstep:\n  - items: [a]\n"},
		{name: "bad items", input: "name: x\nsteps:\n  - items: {a: 1}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, "E201"), "got %v", err)
			assert.Equal(t, tt.empty, stderrors.Is(err, ErrEmptyScenario))
		})
	}
}

func TestFromSteps(t *testing.T) {
	sc := FromSteps("adhoc", "", [][]string{{"a"}, nil})
	require.NoError(t, sc.Validate())
	assert.Len(t, sc.Steps, 2)
	assert.Equal(t, "step 2", sc.StepName(1))
}
