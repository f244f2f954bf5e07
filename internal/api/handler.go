// Package api serves the scouting operations over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/vietddude/dbguard/internal/core/dberr"
	"github.com/vietddude/dbguard/internal/core/domain"
	"github.com/vietddude/dbguard/internal/core/scouting"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-ID"
)

// Handler routes player and scout requests to the scouting service.
type Handler struct {
	svc *scouting.Service
	mux *http.ServeMux
}

// NewHandler creates a Handler with all routes registered.
func NewHandler(svc *scouting.Service) *Handler {
	h := &Handler{svc: svc, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /players", h.listPlayers)
	h.mux.HandleFunc("POST /players", h.createPlayer)
	h.mux.HandleFunc("GET /players/{id}", h.getPlayer)
	h.mux.HandleFunc("DELETE /players/{id}", h.deletePlayer)
	h.mux.HandleFunc("POST /scouts", h.createScout)
	h.mux.HandleFunc("GET /scouts/{id}", h.getScout)
	h.mux.HandleFunc("GET /scouts/{id}/reports", h.listReports)
	h.mux.HandleFunc("POST /scouts/{id}/reports", h.fileReport)

	return h
}

// ServeHTTP attaches the caller's identifiers to the request context.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := r.Header.Get(HeaderRequestID)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	w.Header().Set(HeaderRequestID, reqID)

	ctx := domain.WithCaller(r.Context(), domain.Caller{
		UserID:    r.Header.Get(HeaderUserID),
		RequestID: reqID,
	})
	h.mux.ServeHTTP(w, r.WithContext(ctx))
}

type listResponse[T any] struct {
	Items []T  `json:"items"`
	Stale bool `json:"stale"`
}

func (h *Handler) listPlayers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	players, stale := h.svc.ListPlayers(r.Context(), limit, offset)
	writeJSON(w, http.StatusOK, listResponse[*domain.Player]{Items: players, Stale: stale})
}

func (h *Handler) createPlayer(w http.ResponseWriter, r *http.Request) {
	var in domain.Player
	if !decode(w, r, &in) {
		return
	}
	p, err := h.svc.CreatePlayer(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) getPlayer(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPlayer(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) deletePlayer(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePlayer(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createScout(w http.ResponseWriter, r *http.Request) {
	var in domain.Scout
	if !decode(w, r, &in) {
		return
	}
	sc, err := h.svc.CreateScout(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (h *Handler) getScout(w http.ResponseWriter, r *http.Request) {
	sc, err := h.svc.GetScout(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	reports := h.svc.ListReports(r.Context(), r.PathValue("id"))
	writeJSON(w, http.StatusOK, listResponse[*domain.Report]{Items: reports})
}

func (h *Handler) fileReport(w http.ResponseWriter, r *http.Request) {
	var in domain.Report
	if !decode(w, r, &in) {
		return
	}
	in.ScoutID = r.PathValue("id")
	rep, err := h.svc.FileReport(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: dberr.CodeValidation, Message: err.Error()})
		return false
	}
	return true
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// StatusFor maps a classified error to an HTTP status.
func StatusFor(d *dberr.DatabaseError) int {
	switch {
	case d.Code == dberr.CodeNotFound:
		return http.StatusNotFound
	case d.Code == dberr.CodeUniqueViolation:
		return http.StatusConflict
	case d.Code == dberr.CodeValidation || d.Code == dberr.CodeQueryValidation:
		return http.StatusBadRequest
	case d.Code == dberr.CodeCancelled:
		return 499 // client closed request
	case d.IsRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	var d *dberr.DatabaseError
	if !errors.As(err, &d) {
		writeJSON(w, http.StatusInternalServerError, errorBody{Code: dberr.CodeUnknown, Message: err.Error()})
		return
	}
	writeJSON(w, StatusFor(d), errorBody{Code: d.Code, Message: d.Message, Retryable: d.IsRetryable})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
