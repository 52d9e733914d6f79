package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/daap14/roster/internal/api/middleware"
	"github.com/daap14/roster/internal/api/response"
	"github.com/daap14/roster/internal/api/validation"
	"github.com/daap14/roster/internal/listing"
	"github.com/daap14/roster/internal/record"
)

// maxListLimit caps the limit query parameter.
const maxListLimit = 100

// errInvalidPatch aborts a patch whose merged fields fail validation.
var errInvalidPatch = errors.New("patched record is invalid")

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RecordStore is the record store as seen by the HTTP layer.
type RecordStore interface {
	List(ctx context.Context) []record.Record
	Get(ctx context.Context, id int64) (record.Record, error)
	Create(ctx context.Context, f record.Fields) (record.Record, error)
	Update(ctx context.Context, id int64, f record.Fields) (record.Record, error)
	Patch(ctx context.Context, id int64, fn func(record.Fields) (record.Fields, error)) (record.Record, error)
	Delete(ctx context.Context, id int64) error
}

// recordRequest is the request body for POST and PUT /api/records.
type recordRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// patchRecordRequest is the request body for PATCH /api/records/{id}.
// Omitted fields keep their current value.
type patchRecordRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Role  *string `json:"role,omitempty"`
}

type recordResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func toRecordResponse(r record.Record) recordResponse {
	return recordResponse{ID: r.ID, Name: r.Name, Email: r.Email, Role: r.Role}
}

// RecordHandler handles record CRUD endpoints.
type RecordHandler struct {
	store    RecordStore
	pageSize int
}

// NewRecordHandler creates a new RecordHandler. pageSize is the default
// limit for list requests.
func NewRecordHandler(store RecordStore, pageSize int) *RecordHandler {
	if pageSize < 1 {
		pageSize = listing.DefaultPageSize
	}
	return &RecordHandler{store: store, pageSize: pageSize}
}

// List handles GET /api/records?q=&page=&limit=.
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	page, limit := 1, h.pageSize
	if v := r.URL.Query().Get("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			response.Err(w, http.StatusBadRequest, "INVALID_PARAM", "page must be a positive integer", requestID)
			return
		}
		page = p
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			response.Err(w, http.StatusBadRequest, "INVALID_PARAM", "limit must be a positive integer", requestID)
			return
		}
		limit = min(l, maxListLimit)
	}

	filtered := listing.Filter(h.store.List(r.Context()), r.URL.Query().Get("q"))
	p := listing.Paginate(filtered, limit, page)

	items := make([]recordResponse, 0, len(p.Items))
	for _, rec := range p.Items {
		items = append(items, toRecordResponse(rec))
	}

	response.SuccessList(w, http.StatusOK, items, response.Pagination{
		Total:     p.Total,
		Page:      p.Page,
		Limit:     p.Size,
		PageCount: p.PageCount,
	}, requestID)
}

// GetByID handles GET /api/records/{id}.
func (h *RecordHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := parseRecordID(w, r)
	if !ok {
		return
	}

	rec, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "Failed to get record", requestID)
		return
	}

	response.Success(w, http.StatusOK, toRecordResponse(rec), requestID)
}

// Create handles POST /api/records.
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req recordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	fields := record.Fields{Name: req.Name, Email: req.Email, Role: req.Role}
	if !validateFields(w, fields, requestID) {
		return
	}

	rec, err := h.store.Create(r.Context(), fields)
	if err != nil {
		h.writeStoreError(w, err, "Failed to create record", requestID)
		return
	}

	slog.Info("record created", "id", rec.ID, "requestId", requestID, "actor", actor(r))
	response.Success(w, http.StatusCreated, toRecordResponse(rec), requestID)
}

// Replace handles PUT /api/records/{id}.
func (h *RecordHandler) Replace(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRecordID(w, r)
	if !ok {
		return
	}

	var req recordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.update(w, r, id, record.Fields{Name: req.Name, Email: req.Email, Role: req.Role})
}

// Patch handles PATCH /api/records/{id}.
func (h *RecordHandler) Patch(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := parseRecordID(w, r)
	if !ok {
		return
	}

	var req patchRecordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var fieldErrors validation.FieldErrors
	rec, err := h.store.Patch(r.Context(), id, func(fields record.Fields) (record.Fields, error) {
		if req.Name != nil {
			fields.Name = *req.Name
		}
		if req.Email != nil {
			fields.Email = *req.Email
		}
		if req.Role != nil {
			fields.Role = *req.Role
		}
		fieldErrors = validation.ValidateRecordForm(validation.RecordForm{
			Name:  fields.Name,
			Email: fields.Email,
			Role:  fields.Role,
		})
		if len(fieldErrors) > 0 {
			return fields, errInvalidPatch
		}
		return fields, nil
	})
	if errors.Is(err, errInvalidPatch) {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}
	if err != nil {
		h.writeStoreError(w, err, "Failed to update record", requestID)
		return
	}

	slog.Info("record patched", "id", rec.ID, "requestId", requestID, "actor", actor(r))
	response.Success(w, http.StatusOK, toRecordResponse(rec), requestID)
}

func (h *RecordHandler) update(w http.ResponseWriter, r *http.Request, id int64, fields record.Fields) {
	requestID := middleware.GetRequestID(r.Context())

	if !validateFields(w, fields, requestID) {
		return
	}

	rec, err := h.store.Update(r.Context(), id, fields)
	if err != nil {
		h.writeStoreError(w, err, "Failed to update record", requestID)
		return
	}

	slog.Info("record updated", "id", rec.ID, "requestId", requestID, "actor", actor(r))
	response.Success(w, http.StatusOK, toRecordResponse(rec), requestID)
}

// Delete handles DELETE /api/records/{id}.
func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := parseRecordID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeStoreError(w, err, "Failed to delete record", requestID)
		return
	}

	slog.Info("record deleted", "id", id, "requestId", requestID, "actor", actor(r))
	response.NoContent(w)
}

func (h *RecordHandler) writeStoreError(w http.ResponseWriter, err error, message, requestID string) {
	if errors.Is(err, record.ErrNotFound) {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Record not found", requestID)
		return
	}
	slog.Error(message, "error", err, "requestId", requestID)
	response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", message, requestID)
}

func parseRecordID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := record.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be an integer", middleware.GetRequestID(r.Context()))
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

func validateFields(w http.ResponseWriter, f record.Fields, requestID string) bool {
	fieldErrors := validation.ValidateRecordForm(validation.RecordForm{
		Name:  f.Name,
		Email: f.Email,
		Role:  f.Role,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return false
	}
	return true
}

func actor(r *http.Request) string {
	if id := middleware.GetIdentity(r.Context()); id != nil {
		return id.KeyPrefix
	}
	return "anonymous"
}
