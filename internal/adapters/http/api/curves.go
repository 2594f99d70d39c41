package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"

	"github.com/google/uuid"

	service "github.com/okian/survcurve/internal/app"
	"github.com/okian/survcurve/pkg/frame"
	"github.com/okian/survcurve/pkg/logger"
	"github.com/okian/survcurve/pkg/survival"
)

// curvesRequest is the body of POST /v1/curves/{kind}. Columns are given
// column-wise; JSON null marks a missing value.
type curvesRequest struct {
	Columns  map[string][]any `json:"columns"`
	Risk     string           `json:"risk"`
	Event    string           `json:"event"`
	Time     string           `json:"time"`
	Horizons []float64        `json:"horizons"`
	TieMode  string           `json:"tie_mode"`
}

// jsonFloat encodes NaN and ±Inf as null.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

type horizonJSON struct {
	Horizon    jsonFloat `json:"horizon"`
	Positives  int       `json:"positives"`
	Negatives  int       `json:"negatives"`
	Prevalence jsonFloat `json:"prevalence"`
}

type areaJSON struct {
	Horizon jsonFloat `json:"horizon"`
	Area    jsonFloat `json:"area"`
}

type rocJSON struct {
	Horizon   jsonFloat `json:"horizon"`
	Threshold jsonFloat `json:"threshold"`
	FPR       jsonFloat `json:"fpr"`
	TPR       jsonFloat `json:"tpr"`
}

type prJSON struct {
	Horizon    jsonFloat `json:"horizon"`
	Threshold  jsonFloat `json:"threshold"`
	Recall     jsonFloat `json:"recall"`
	Precision  jsonFloat `json:"precision"`
	Prevalence jsonFloat `json:"prevalence"`
}

type curvesResponse struct {
	ID               string        `json:"id"`
	Kind             string        `json:"kind"`
	DurationMs       float64       `json:"duration_ms"`
	Horizons         []horizonJSON `json:"horizons"`
	ROC              []rocJSON     `json:"roc,omitempty"`
	PR               []prJSON      `json:"pr,omitempty"`
	AUC              []areaJSON    `json:"auc,omitempty"`
	AveragePrecision []areaJSON    `json:"average_precision,omitempty"`
}

// CurvesHandler serves curve evaluation requests.
type CurvesHandler struct {
	deps    Dependencies
	maxBody int64
	logger  logger.Logger
}

// NewCurvesHandler creates a curves handler.
func NewCurvesHandler(deps Dependencies) *CurvesHandler {
	return &CurvesHandler{deps: deps, maxBody: defaultMaxBodyBytes}
}

// HandleCurves handles POST /v1/curves/{kind}.
func (h *CurvesHandler) HandleCurves(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, err := service.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	var req curvesRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	data, err := buildFrame(req.Columns)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	res, err := h.deps.Evaluate(ctx, service.Request{
		Kind:     kind,
		Data:     data,
		Columns:  survival.Columns{Risk: req.Risk, Event: req.Event, Time: req.Time},
		Horizons: req.Horizons,
		TieMode:  req.TieMode,
		Key:      uuid.NewSHA1(uuid.NameSpaceOID, body).String(),
	})
	if err != nil {
		status, code := statusFor(err)
		if h.logger != nil && status >= http.StatusInternalServerError {
			h.logger.Error(ctx, "evaluation failed",
				logger.String("request_id", RequestID(ctx)),
				logger.Error(err),
			)
		}
		writeError(w, status, code, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

func statusFor(err error) (int, string) {
	switch kind := service.ErrorKind(err); kind {
	case "invalid_input", "missing_column":
		return http.StatusBadRequest, kind
	case "limit":
		return http.StatusRequestEntityTooLarge, kind
	case "canceled":
		return http.StatusServiceUnavailable, kind
	default:
		return http.StatusInternalServerError, kind
	}
}

// buildFrame turns column-wise JSON values into a frame. A column's type is
// taken from its first non-null value; all-null columns are float.
func buildFrame(columns map[string][]any) (*frame.Frame, error) {
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	series := make([]*frame.Series, 0, len(names))
	for _, name := range names {
		s, err := buildSeries(name, columns[name])
		if err != nil {
			return nil, err
		}
		series = append(series, s)
	}
	return frame.New(series...)
}

func buildSeries(name string, values []any) (*frame.Series, error) {
	valid := make([]bool, len(values))
	var kind any
	for i, v := range values {
		valid[i] = v != nil
		if kind == nil && v != nil {
			kind = v
		}
	}
	switch kind.(type) {
	case nil, float64:
		out := make([]float64, len(values))
		for i, v := range values {
			if v == nil {
				continue
			}
			f, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("%q row %d: mixed types: %w", name, i, ErrColumn)
			}
			out[i] = f
		}
		return frame.NewNullableFloat(name, out, valid), nil
	case bool:
		out := make([]bool, len(values))
		for i, v := range values {
			if v == nil {
				continue
			}
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("%q row %d: mixed types: %w", name, i, ErrColumn)
			}
			out[i] = b
		}
		return frame.NewNullableBool(name, out, valid), nil
	case string:
		out := make([]string, len(values))
		for i, v := range values {
			if v == nil {
				continue
			}
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%q row %d: mixed types: %w", name, i, ErrColumn)
			}
			out[i] = s
		}
		return frame.NewNullableString(name, out, valid), nil
	default:
		return nil, fmt.Errorf("%q: unsupported value %T: %w", name, kind, ErrColumn)
	}
}

func toResponse(res *service.Result) curvesResponse {
	out := curvesResponse{
		ID:         res.ID,
		Kind:       string(res.Kind),
		DurationMs: float64(res.Duration.Microseconds()) / 1000,
		Horizons:   make([]horizonJSON, len(res.Horizons)),
	}
	for i, h := range res.Horizons {
		out.Horizons[i] = horizonJSON{
			Horizon:    jsonFloat(h.Horizon),
			Positives:  h.TotalPos,
			Negatives:  h.TotalNeg,
			Prevalence: jsonFloat(h.Prevalence),
		}
	}
	for _, r := range res.ROC {
		out.ROC = append(out.ROC, rocJSON{jsonFloat(r.Horizon), jsonFloat(r.Threshold), jsonFloat(r.FPR), jsonFloat(r.TPR)})
	}
	for _, r := range res.PR {
		out.PR = append(out.PR, prJSON{jsonFloat(r.Horizon), jsonFloat(r.Threshold), jsonFloat(r.Recall), jsonFloat(r.Precision), jsonFloat(r.Prevalence)})
	}
	out.AUC = areas(res.AUC)
	out.AveragePrecision = areas(res.AveragePrecision)
	return out
}

func areas(in []survival.HorizonArea) []areaJSON {
	var out []areaJSON
	for _, a := range in {
		out = append(out, areaJSON{jsonFloat(a.Horizon), jsonFloat(a.Area)})
	}
	return out
}
