package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/modhaus/modlayout/pkg/catalogue"
	"github.com/modhaus/modlayout/pkg/errors"
	"github.com/modhaus/modlayout/pkg/layout"
	"github.com/modhaus/modlayout/pkg/mutate"
	"github.com/modhaus/modlayout/pkg/pipeline"
	"github.com/modhaus/modlayout/pkg/store"
)

// =============================================================================
// Request / Response Types
// =============================================================================

type layoutRequest struct {
	pipeline.Options
}

type sectionTypeRequest struct {
	pipeline.Options
	SectionType string `json:"section_type"`
}

type levelTypeRequest struct {
	pipeline.Options
	RowIndex  int    `json:"row_index"`
	LevelType string `json:"level_type"`
}

type windowTypeRequest struct {
	pipeline.Options
	ColumnIndex int                  `json:"column_index"`
	RowIndex    int                  `json:"row_index"`
	ModuleIndex int                  `json:"module_index"`
	Side        catalogue.WindowSide `json:"side"`
}

type layoutResponse struct {
	Cached bool          `json:"cached"`
	Layout layout.Export `json:"layout"`
}

type dnasResponse struct {
	DNAs []string `json:"dnas"`
}

type alternative struct {
	Cost        int                    `json:"cost"`
	Fillers     int                    `json:"fillers"`
	SectionType *catalogue.SectionType `json:"section_type,omitempty"`
	LevelType   *catalogue.LevelType   `json:"level_type,omitempty"`
	HeightDelta float64                `json:"height_delta,omitempty"`
	WindowType  *catalogue.WindowType  `json:"window_type,omitempty"`
	Module      string                 `json:"module,omitempty"`
	DNAs        []string               `json:"dnas"`
	Layout      layout.Export          `json:"layout"`
}

type alternativesResponse struct {
	Alternatives []alternative `json:"alternatives"`
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// =============================================================================
// Helpers
// =============================================================================

// StatusFor maps an error code to an HTTP status.
func StatusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeMalformedInput, errors.ErrCodeInvalidInput,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeLengthMismatch:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "id", RequestID(r.Context()), "path", r.URL.Path, "err", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: msg}})
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

// build lays out the DNAs named by opts through the runner cache.
func (s *Server) build(r *http.Request, opts *pipeline.Options) (layout.ColumnLayout, bool, error) {
	opts.Logger = s.logger
	return s.runner.BuildLayoutWithCacheInfo(r.Context(), *opts)
}

func toAlternative(a mutate.Alternative) (alternative, error) {
	dnas, err := layout.LayoutToDnas(a.Layout)
	if err != nil {
		return alternative{}, err
	}
	return alternative{
		Cost:    a.Cost,
		Fillers: a.Fillers,
		DNAs:    dnas,
		Layout:  layout.ToExport(a.Layout),
	}, nil
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) buildLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	l, hit, err := s.build(r, &req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, layoutResponse{Cached: hit, Layout: layout.ToExport(l)})
}

func (s *Server) layoutDNAs(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	l, _, err := s.build(r, &req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dnas, err := s.runner.LayoutToDnas(l)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dnasResponse{DNAs: dnas})
}

func (s *Server) mutateSectionType(w http.ResponseWriter, r *http.Request) {
	var req sectionTypeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	l, _, err := s.build(r, &req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	alts, err := s.runner.MutateSectionType(r.Context(), l, req.SectionType, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := alternativesResponse{Alternatives: make([]alternative, 0, len(alts))}
	for _, a := range alts {
		alt, err := toAlternative(a.Alternative)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		st := a.SectionType
		alt.SectionType = &st
		out.Alternatives = append(out.Alternatives, alt)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) mutateLevelType(w http.ResponseWriter, r *http.Request) {
	var req levelTypeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	l, _, err := s.build(r, &req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	alts, err := s.runner.MutateLevelType(r.Context(), l, req.RowIndex, req.LevelType, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := alternativesResponse{Alternatives: make([]alternative, 0, len(alts))}
	for _, a := range alts {
		alt, err := toAlternative(a.Alternative)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		lt := a.LevelType
		alt.LevelType = &lt
		alt.HeightDelta = a.HeightDelta
		out.Alternatives = append(out.Alternatives, alt)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) mutateWindowType(w http.ResponseWriter, r *http.Request) {
	var req windowTypeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	l, _, err := s.build(r, &req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	alts, err := s.runner.MutateWindowType(r.Context(), l, req.ColumnIndex, req.RowIndex, req.ModuleIndex, req.Side, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := alternativesResponse{Alternatives: make([]alternative, 0, len(alts))}
	for _, a := range alts {
		alt, err := toAlternative(a.Alternative)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		wt := a.WindowType
		alt.WindowType = &wt
		if a.Module != nil {
			alt.Module = a.Module.DNA
		}
		out.Alternatives = append(out.Alternatives, alt)
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// Buildings
// =============================================================================

func (s *Server) listBuildings(w http.ResponseWriter, r *http.Request) {
	opts := store.ListOptions{SystemID: r.URL.Query().Get("system_id")}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		opts.Limit = n
	}
	bs, err := s.store.List(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if bs == nil {
		bs = []*store.Building{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"buildings": bs})
}

func (s *Server) saveBuilding(w http.ResponseWriter, r *http.Request) {
	var b store.Building
	if err := decode(r, &b); err != nil {
		s.writeError(w, r, err)
		return
	}
	// Reject buildings whose DNAs do not lay out.
	opts := pipeline.Options{SystemID: b.SystemID, DNAs: b.DNAs}
	if _, _, err := s.build(r, &opts); err != nil {
		s.writeError(w, r, err)
		return
	}
	saved, err := s.store.Save(r.Context(), &b)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) getBuilding(w http.ResponseWriter, r *http.Request) {
	b, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) buildingLayout(w http.ResponseWriter, r *http.Request) {
	b, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := pipeline.Options{SystemID: b.SystemID, DNAs: b.DNAs}
	l, hit, err := s.build(r, &opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, layoutResponse{Cached: hit, Layout: layout.ToExport(l)})
}

func (s *Server) deleteBuilding(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
