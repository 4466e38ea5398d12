// Package report stores scenario reports as JSON documents.
package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/vango-dev/primitives/internal/config"
	"github.com/vango-dev/primitives/internal/errors"
	"github.com/vango-dev/primitives/internal/scenario"
)

// Sink stores reports.
type Sink interface {
	// Put stores r under name. The name has no extension.
	Put(ctx context.Context, name string, r *scenario.Report) error
}

// Name returns a unique object name for r.
func Name(r *scenario.Report) string {
	base := strings.Map(func(c rune) rune {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			return c
		}
		return '-'
	}, r.Name)
	if base == "" {
		base = "report"
	}
	return base + "-" + uuid.NewString()
}

// New returns the sink selected by cfg. SinkNone yields a Nop sink.
func New(ctx context.Context, cfg config.ReportConfig) (Sink, error) {
	switch cfg.Sink {
	case config.SinkNone, "":
		return Nop{}, nil
	case config.SinkFile:
		return NewFileSink(cfg.Path), nil
	case config.SinkS3:
		return NewS3SinkFromConfig(ctx, cfg)
	}
	return nil, errors.New("E302").WithDetailf("report.sink %q", cfg.Sink)
}

// Nop discards reports.
type Nop struct{}

// Put does nothing.
func (Nop) Put(context.Context, string, *scenario.Report) error { return nil }

// FileSink writes reports to Dir/<name>.json.
type FileSink struct {
	Dir string
}

// NewFileSink creates a FileSink rooted at dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir}
}

// Put writes r, creating Dir if needed.
func (s *FileSink) Put(ctx context.Context, name string, r *scenario.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(r)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return errors.New("E301").WithDetail(s.Dir).Wrap(err)
	}
	path := filepath.Join(s.Dir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("E301").WithDetail(path).Wrap(err)
	}
	return nil
}

func encode(r *scenario.Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, errors.New("E301").Wrap(err)
	}
	return data, nil
}
