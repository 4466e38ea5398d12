package playground

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"

	"go.uber.org/zap"

	"github.com/vango-dev/primitives/internal/errors"
	"github.com/vango-dev/primitives/internal/report"
	"github.com/vango-dev/primitives/internal/scenario"
	"github.com/vango-dev/primitives/pkg/masonry"
)

// maxColumns bounds layout requests.
const maxColumns = 64

// List labels for metrics and traces. Request and session names stay out
// of label values.
const (
	reconcileList = "reconcile"
	sessionList   = "ws"
)

// ReconcileRequest is the body of POST /api/reconcile.
type ReconcileRequest struct {
	Name     string     `json:"name"`
	Fallback string     `json:"fallback,omitempty"`
	Steps    [][]string `json:"steps"`
	// Save stores the report in the configured sink.
	Save bool `json:"save,omitempty"`
}

// ReconcileResponse is the answer to POST /api/reconcile.
type ReconcileResponse struct {
	Report *scenario.Report `json:"report"`
	Saved  string           `json:"saved,omitempty"`
}

// LayoutRequest is the body of POST /api/layout.
type LayoutRequest struct {
	Heights []float64 `json:"heights"`
	Columns int       `json:"columns"`
	Gap     float64   `json:"gap"`
}

type errorBody struct {
	Error *errors.Error `json:"error"`
}

type healthBody struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthBody{Status: "ok", Sessions: s.Sessions()})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		req.Name = "adhoc"
	}
	for i, items := range req.Steps {
		if len(items) > s.cfg.MaxItems {
			s.fail(w, http.StatusBadRequest, errors.New("E401").
				WithDetailf("step %d has %d items, the limit is %d", i+1, len(items), s.cfg.MaxItems))
			return
		}
	}

	sc := scenario.FromSteps(req.Name, req.Fallback, req.Steps)
	rep, err := scenario.NewRunner(s.observer(r.Context()), s.logger).
		WithListName(reconcileList).
		Run(r.Context(), sc)
	if err != nil {
		s.fail(w, http.StatusBadRequest, errors.FromError(err, "E201"))
		return
	}

	resp := ReconcileResponse{Report: rep}
	if req.Save {
		name := report.Name(rep)
		if err := s.sink.Put(r.Context(), name, rep); err != nil {
			s.fail(w, http.StatusBadGateway, errors.FromError(err, "E301"))
			return
		}
		resp.Saved = name
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Columns < 1 || req.Columns > maxColumns {
		s.fail(w, http.StatusBadRequest, errors.New("E401").
			WithDetailf("columns must be between 1 and %d", maxColumns))
		return
	}
	if len(req.Heights) > s.cfg.MaxItems {
		s.fail(w, http.StatusBadRequest, errors.New("E401").
			WithDetailf("%d heights, the limit is %d", len(req.Heights), s.cfg.MaxItems))
		return
	}
	res := masonry.Layout(req.Heights, req.Columns, req.Gap)
	if math.IsInf(res.Height, 0) || math.IsNaN(res.Height) {
		s.fail(w, http.StatusBadRequest, errors.New("E401").
			WithDetail("column height overflows"))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// decode reads a JSON body no larger than MaxMessageBytes. It writes the
// error response itself and reports whether v was filled.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxMessageBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.fail(w, http.StatusBadRequest, errors.New("E401").Wrap(err))
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, status int, err *errors.Error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.Error(err))
	}
	if err.Wrapped != nil && err.Detail == "" {
		err.Detail = err.Wrapped.Error()
	}
	writeJSON(w, status, errorBody{Error: err})
}

// writeJSON encodes v fully before writing the status. A value that fails
// to encode is answered with 500 E404.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(errorBody{
			Error: errors.New("E404").WithDetail(err.Error()),
		})
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
