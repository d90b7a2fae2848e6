package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/fieldaudit/internal/apperr"
	"github.com/starford/fieldaudit/internal/auditservice"
	"github.com/starford/fieldaudit/internal/schema"
)

// Handler holds API route handlers.
type Handler struct {
	svc *auditservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *auditservice.Service) *Handler {
	return &Handler{svc: svc}
}

// GetForm handles GET /api/form.
func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FormResponse{Form: h.svc.Snapshot(r.Context()), Status: h.svc.Status()})
}

// SetField handles PUT /api/form/fields/{name}.
func (h *Handler) SetField(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req SetFieldRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := h.svc.SetField(r.Context(), name, *req.Value); err != nil {
		writeError(w, "set field", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name, "value": *req.Value})
}

// AddRow handles POST /api/form/tables/{table}/rows.
func (h *Handler) AddRow(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	idx, err := h.svc.AddRow(r.Context(), table)
	if err != nil {
		writeError(w, "add row", err)
		return
	}
	resp := RowResponse{Table: table, Index: idx}
	if t, ok := schema.TableByID(table); ok {
		for _, col := range t.Columns {
			resp.Fields = append(resp.Fields, schema.RowField(col.Key, idx))
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// RemoveRow handles DELETE /api/form/tables/{table}/rows/{index}.
func (h *Handler) RemoveRow(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("index must be an integer"))
		return
	}
	if err := h.svc.RemoveRow(r.Context(), table, idx); err != nil {
		writeError(w, "remove row", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddNotesPage handles POST /api/form/sections/{section}/notes-pages.
func (h *Handler) AddNotesPage(w http.ResponseWriter, r *http.Request) {
	section := chi.URLParam(r, "section")
	idx, err := h.svc.AddNotesPage(r.Context(), section)
	if err != nil {
		writeError(w, "add notes page", err)
		return
	}
	writeJSON(w, http.StatusCreated, PageResponse{Section: section, Index: idx, Field: schema.NotesPageField(section, idx)})
}

// Reset handles POST /api/form/reset.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := h.svc.Reset(r.Context(), req.Confirm); err != nil {
		writeError(w, "reset", err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Status())
}

// Status handles GET /api/status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

// Report handles GET /api/report: the live form as a PDF attachment.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	exp, err := h.svc.Export(r.Context())
	if err != nil {
		writeError(w, "report", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(exp.Data)))
	w.Header().Set("X-Report-ID", exp.ID)
	w.Header().Set("X-Report-Pages", strconv.Itoa(exp.Pages))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(exp.Data)
}

// Schema handles GET /api/schema.
func (h *Handler) Schema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, schema.Describe())
}

func malformed(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, apperr.ErrMalformed)...)
}
