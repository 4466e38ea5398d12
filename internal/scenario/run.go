package scenario

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vango-dev/primitives/internal/errors"
	"github.com/vango-dev/primitives/pkg/list"
)

// Totals sums item outcomes over all steps.
type Totals struct {
	Kept      int `json:"kept"`
	Moved     int `json:"moved"`
	Rewritten int `json:"rewritten"`
	Recycled  int `json:"recycled"`
	Created   int `json:"created"`
	Disposed  int `json:"disposed"`
}

func (t *Totals) add(s list.Stats) {
	t.Kept += s.Kept
	t.Moved += s.Moved
	t.Rewritten += s.Rewritten
	t.Recycled += s.Recycled
	t.Created += s.Created
	t.Disposed += s.Disposed
}

// Report is the result of a scenario run.
type Report struct {
	Name     string        `json:"name"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Steps    []StepReport  `json:"steps"`

	// Closed lists the rows disposed when the run ended.
	Closed []int  `json:"closed,omitempty"`
	Totals Totals `json:"totals"`
}

// Runner runs scenarios with a shared observer and logger.
type Runner struct {
	observer list.Observer
	logger   *zap.Logger
	listName string
}

// NewRunner creates a Runner. A nil logger disables logging.
func NewRunner(obs list.Observer, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{observer: obs, logger: logger}
}

// WithListName makes every session report list Stats under label. Reports
// and logs keep the scenario name.
func (r *Runner) WithListName(label string) *Runner {
	r.listName = label
	return r
}

// Run replays sc in a fresh session. The context is checked between steps.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	opts := []SessionOption{WithObserver(r.observer)}
	if sc.Fallback != "" {
		opts = append(opts, WithFallback(sc.Fallback))
	}
	if r.listName != "" {
		opts = append(opts, WithListName(r.listName))
	}
	sess := NewSession(sc.Name, opts...)

	rep := &Report{Name: sc.Name, Started: time.Now()}
	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			sess.Close()
			return nil, errors.New("E203").WithDetailf("%s before %q", sc.Name, sc.StepName(i)).Wrap(err)
		}

		sr, err := sess.Step(sc.StepName(i), step.Items)
		if err != nil {
			sess.Close()
			return nil, err
		}
		rep.Totals.add(sr.Stats)
		rep.Steps = append(rep.Steps, sr)

		r.logger.Debug("step reconciled",
			zap.String("scenario", sc.Name),
			zap.String("step", sr.Name),
			zap.Int("len", sr.Stats.Len),
			zap.Int("reused", sr.Stats.Reused()),
			zap.Int("created", sr.Stats.Created),
			zap.Int("disposed", sr.Stats.Disposed))
	}

	rep.Closed = sess.Close()
	rep.Totals.Disposed += len(rep.Closed)
	rep.Duration = time.Since(rep.Started)

	r.logger.Info("scenario finished",
		zap.String("scenario", sc.Name),
		zap.Int("steps", len(rep.Steps)),
		zap.Duration("duration", rep.Duration))
	return rep, nil
}

// Run replays sc with obs and no logging.
func Run(ctx context.Context, sc *Scenario, obs list.Observer) (*Report, error) {
	return NewRunner(obs, nil).Run(ctx, sc)
}
