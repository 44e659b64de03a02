package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vijay-prabhu/talentmatch/internal/database"
	"github.com/vijay-prabhu/talentmatch/internal/form"
	"github.com/vijay-prabhu/talentmatch/internal/match"
	"github.com/vijay-prabhu/talentmatch/internal/output"
)

const maxBodyBytes = 1 << 20

// MatchResponse is the body of a successful match request. SelectionKeys
// is the encoded query, ready to post to /export or /selections.
type MatchResponse struct {
	Count         int            `json:"count"`
	Query         match.Query    `json:"query"`
	SelectionKeys string         `json:"selection_keys"`
	Results       []match.Result `json:"results"`
}

// SelectionRequest is the JSON body accepted by POST /selections
type SelectionRequest struct {
	Name  string      `json:"name"`
	Query match.Query `json:"query"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// isBadRequest reports whether err was caused by the client's input
func isBadRequest(err error) bool {
	var fe *form.FieldError
	var se *json.SyntaxError
	var te *json.UnmarshalTypeError
	var mbe *http.MaxBytesError
	return errors.Is(err, match.ErrInvalidDateFormat) ||
		errors.As(err, &fe) || errors.As(err, &se) || errors.As(err, &te) ||
		errors.As(err, &mbe) || errors.Is(err, io.ErrUnexpectedEOF)
}

// fail writes a 400 for client errors and a logged 500 for everything else
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if isBadRequest(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func isJSON(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/json"
}

// decodeQuery reads a query from a JSON body or from submitted form fields
func decodeQuery(r *http.Request) (match.Query, error) {
	if isJSON(r) {
		var q match.Query
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			return match.Query{}, err
		}
		return q.Normalize(), nil
	}

	if err := r.ParseForm(); err != nil {
		return match.Query{}, &form.FieldError{Field: "body", Err: err}
	}
	if keys := r.PostForm.Get(form.FieldSelectionKeys); keys != "" {
		return form.ParseSelectionKeys(keys)
	}
	return form.Parse(r.PostForm)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":    "ok",
		"driver":    s.store.Driver(),
		"timestamp": time.Now().UTC(),
	}
	if err := s.store.Health(r.Context()); err != nil {
		resp["status"] = "unhealthy"
		resp["error"] = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	q, err := decodeQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	results, err := s.matcher.Match(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	keys, err := q.Encode()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MatchResponse{
		Count:         len(results),
		Query:         q,
		SelectionKeys: keys,
		Results:       results,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	q, err := decodeQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	results, err := s.matcher.Match(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = output.FormatCSV
	}

	switch format {
	case output.FormatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="relevant_candidates.csv"`)
	case output.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="relevant_candidates.json"`)
	default:
		writeError(w, http.StatusBadRequest, "unsupported export format: "+format)
		return
	}

	if err := output.OutputTo(w, format, results); err != nil {
		s.logger.Error("export failed", "err", err)
	}
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCandidate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "candidate not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleListSelections(w http.ResponseWriter, r *http.Request) {
	selections, err := s.store.ListSelections(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if selections == nil {
		selections = []database.Selection{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":      len(selections),
		"selections": selections,
	})
}

// handleSaveSelection accepts {"name", "query"} as JSON, or a form with
// name and selection_keys fields
func (s *Server) handleSaveSelection(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req SelectionRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.fail(w, r, err)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		q, err := form.ParseSelectionKeys(r.PostForm.Get(form.FieldSelectionKeys))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		req = SelectionRequest{Name: r.PostForm.Get("name"), Query: q}
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "selection name is required")
		return
	}
	if err := req.Query.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	if len(req.Query.Normalize().Roles) == 0 {
		writeError(w, http.StatusBadRequest, "query role is required: a selection without roles never matches anyone")
		return
	}

	encoded, err := req.Query.Encode()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	sel := &database.Selection{Name: req.Name, Query: encoded}
	if err := s.store.CreateSelection(r.Context(), sel); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sel)
}

func (s *Server) selection(w http.ResponseWriter, r *http.Request) *database.Selection {
	sel, err := s.store.GetSelection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return nil
	}
	if sel == nil {
		writeError(w, http.StatusNotFound, "selection not found")
		return nil
	}
	return sel
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	if sel := s.selection(w, r); sel != nil {
		writeJSON(w, http.StatusOK, sel)
	}
}

func (s *Server) handleDeleteSelection(w http.ResponseWriter, r *http.Request) {
	sel := s.selection(w, r)
	if sel == nil {
		return
	}
	if err := s.store.DeleteSelection(r.Context(), sel.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "selection not found")
			return
		}
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRunSelection(w http.ResponseWriter, r *http.Request) {
	sel := s.selection(w, r)
	if sel == nil {
		return
	}

	q, err := match.DecodeQuery(sel.Query)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	results, err := s.matcher.Match(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MatchResponse{
		Count:         len(results),
		Query:         q,
		SelectionKeys: sel.Query,
		Results:       results,
	})
}
