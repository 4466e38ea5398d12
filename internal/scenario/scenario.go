// Package scenario replays sequences of list updates through list.Array and
// reports how every item was reused.
//
// A scenario is a YAML document:
//
//	name: shuffle
//	fallback: "(empty)"
//	steps:
//	  - name: initial
//	    items: [a, b, c]
//	  - name: reverse
//	    items: [c, b, a]
//	  - name: clear
//	    items: []
package scenario

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/primitives/internal/errors"
)

// ErrEmptyScenario is wrapped by errors for scenarios without steps.
var ErrEmptyScenario = stderrors.New("scenario has no steps")

// Scenario is a named sequence of source snapshots.
type Scenario struct {
	Name string `yaml:"name" json:"name"`

	// Fallback is shown while the source is empty. Empty means none.
	Fallback string `yaml:"fallback,omitempty" json:"fallback,omitempty"`

	Steps []Step `yaml:"steps" json:"steps"`
}

// Step is one source snapshot.
type Step struct {
	Name  string   `yaml:"name,omitempty" json:"name,omitempty"`
	Items []string `yaml:"items" json:"items"`
}

// FromSteps builds an anonymous scenario from bare snapshots.
func FromSteps(name, fallback string, snapshots [][]string) *Scenario {
	sc := &Scenario{Name: name, Fallback: fallback}
	for _, items := range snapshots {
		sc.Steps = append(sc.Steps, Step{Items: items})
	}
	return sc
}

// Load reads and parses the scenario at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E202").WithDetail(path).Wrap(err)
	}
	sc, err := Parse(data)
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) && e.Detail == "" {
			e.Detail = path
		}
		return nil, err
	}
	return sc, nil
}

// Parse decodes a YAML scenario. Unknown keys are rejected.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		if err == io.EOF {
			return nil, errors.New("E201").Wrap(ErrEmptyScenario)
		}
		return nil, errors.New("E201").Wrap(err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks that the scenario can be run.
func (sc *Scenario) Validate() error {
	if sc.Name == "" {
		return errors.New("E201").WithDetail("name is required")
	}
	if len(sc.Steps) == 0 {
		return errors.New("E201").Wrap(ErrEmptyScenario)
	}
	return nil
}

// StepName returns the name of step i, or a generated one.
func (sc *Scenario) StepName(i int) string {
	if sc.Steps[i].Name != "" {
		return sc.Steps[i].Name
	}
	return fmt.Sprintf("step %d", i+1)
}
