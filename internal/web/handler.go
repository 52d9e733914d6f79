// Package web serves the HTML view of the record list: a searchable,
// paginated table with a create/edit dialog and a delete confirmation.
// Dialog state travels in the query string so every page is linkable.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/daap14/roster/internal/api/middleware"
	"github.com/daap14/roster/internal/api/validation"
	"github.com/daap14/roster/internal/dialog"
	"github.com/daap14/roster/internal/listing"
	"github.com/daap14/roster/internal/record"
)

//go:embed templates/*.html
var templateFS embed.FS

// Query-string values for the dialog parameter.
const (
	dialogNew    = "new"
	dialogEdit   = "edit"
	dialogDelete = "delete"
)

// Store is the record store as seen by the HTML view.
type Store interface {
	dialog.Mutator
	List(ctx context.Context) []record.Record
	Get(ctx context.Context, id int64) (record.Record, error)
}

// Handler renders the record page and accepts its form posts.
type Handler struct {
	store    Store
	pageSize int
	tmpl     *template.Template
}

// NewHandler parses the embedded templates and returns a Handler.
func NewHandler(store Store, pageSize int) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	if pageSize < 1 {
		pageSize = listing.DefaultPageSize
	}
	return &Handler{store: store, pageSize: pageSize, tmpl: tmpl}, nil
}

// view is where the user is: the search, the page, and which dialog is open.
type view struct {
	query string
	page  int
}

func viewFromValues(v url.Values) view {
	page, err := strconv.Atoi(v.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	return view{query: v.Get("q"), page: page}
}

// url returns the page URL for v with extra query parameters (dialog, id).
func (v view) url(extra ...string) string {
	q := url.Values{}
	if v.query != "" {
		q.Set("q", v.query)
	}
	if v.page > 1 {
		q.Set("page", strconv.Itoa(v.page))
	}
	for i := 0; i+1 < len(extra); i += 2 {
		q.Set(extra[i], extra[i+1])
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

type row struct {
	Record    record.Record
	EditURL   string
	DeleteURL string
}

type pageLink struct {
	Number  int
	URL     string
	Current bool
}

type pageData struct {
	Query     string
	Page      listing.Page
	Rows      []row
	PageLinks []pageLink
	Dialog    dialog.State
	Errors    map[string]string
	NewURL    string
	CloseURL  string
	SubmitURL string
}

// Index handles GET /. The dialog query parameter opens the create dialog
// (dialog=new), the edit dialog (dialog=edit&id=) or the delete
// confirmation (dialog=delete&id=).
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	v := viewFromValues(r.URL.Query())
	m := dialog.New(h.store)

	var err error
	switch r.URL.Query().Get("dialog") {
	case dialogNew:
		err = m.OpenCreate()
	case dialogEdit:
		var rec record.Record
		if rec, err = h.lookup(r.Context(), r.URL.Query().Get("id")); err == nil {
			err = m.OpenEdit(rec)
		}
	case dialogDelete:
		var rec record.Record
		if rec, err = h.lookup(r.Context(), r.URL.Query().Get("id")); err == nil {
			err = m.RequestDelete(rec)
		}
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusNotFound
		m = dialog.New(h.store)
	}

	h.render(w, r, status, v, m.State())
}

// Create handles POST /records from the create dialog.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	v := viewFromValues(r.PostForm)

	m := dialog.New(h.store)
	if err := m.OpenCreate(); err != nil {
		h.fail(w, r, err)
		return
	}
	h.submit(w, r, v, m)
}

// Update handles POST /records/{id} from the edit dialog.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	v := viewFromValues(r.PostForm)

	rec, err := h.lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.render(w, r, http.StatusNotFound, v, dialog.State{})
		return
	}

	m := dialog.New(h.store)
	if err := m.OpenEdit(rec); err != nil {
		h.fail(w, r, err)
		return
	}
	h.submit(w, r, v, m)
}

// Delete handles POST /records/{id}/delete from the delete confirmation.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	v := viewFromValues(r.PostForm)

	rec, err := h.lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.render(w, r, http.StatusNotFound, v, dialog.State{})
		return
	}

	m := dialog.New(h.store)
	if err := m.RequestDelete(rec); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := m.ConfirmDelete(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}

	slog.Info("record deleted", "id", rec.ID, "requestId", middleware.GetRequestID(r.Context()))

	// Stay on the last page that still has rows.
	remaining := listing.Paginate(listing.Filter(h.store.List(r.Context()), v.query), h.pageSize, v.page)
	if remaining.PageCount > 0 && v.page > remaining.PageCount {
		v.page = remaining.PageCount
	}
	http.Redirect(w, r, v.url(), http.StatusSeeOther)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, v view, m *dialog.Machine) {
	form := validation.RecordForm{
		Name:  r.PostForm.Get("name"),
		Email: r.PostForm.Get("email"),
		Role:  r.PostForm.Get("role"),
	}

	saved, err := m.Submit(r.Context(), form)
	if errors.Is(err, dialog.ErrInvalidForm) {
		h.render(w, r, http.StatusUnprocessableEntity, v, m.State())
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	slog.Info("record saved", "id", saved.ID, "requestId", middleware.GetRequestID(r.Context()))
	http.Redirect(w, r, v.url(), http.StatusSeeOther)
}

func (h *Handler) lookup(ctx context.Context, rawID string) (record.Record, error) {
	id, err := record.ParseID(rawID)
	if err != nil {
		return record.Record{}, record.ErrNotFound
	}
	return h.store.Get(ctx, id)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, record.ErrNotFound) {
		h.render(w, r, http.StatusNotFound, viewFromValues(r.PostForm), dialog.State{})
		return
	}
	slog.Error("record page request failed", "error", err, "requestId", middleware.GetRequestID(r.Context()))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, v view, state dialog.State) {
	p := listing.Paginate(listing.Filter(h.store.List(r.Context()), v.query), h.pageSize, v.page)

	data := pageData{
		Query:    v.query,
		Page:     p,
		Rows:     make([]row, 0, len(p.Items)),
		Dialog:   state,
		Errors:   state.Errors.Map(),
		NewURL:   v.url("dialog", dialogNew),
		CloseURL: v.url(),
	}
	for _, rec := range p.Items {
		id := strconv.FormatInt(rec.ID, 10)
		data.Rows = append(data.Rows, row{
			Record:    rec,
			EditURL:   v.url("dialog", dialogEdit, "id", id),
			DeleteURL: v.url("dialog", dialogDelete, "id", id),
		})
	}
	for _, n := range p.Pages() {
		data.PageLinks = append(data.PageLinks, pageLink{
			Number:  n,
			URL:     view{query: v.query, page: n}.url(),
			Current: n == p.Page,
		})
	}

	switch {
	case state.Kind == dialog.Editing && state.Target == nil:
		data.SubmitURL = "/records"
	case state.Kind == dialog.Editing:
		data.SubmitURL = fmt.Sprintf("/records/%d", state.Target.ID)
	case state.Kind == dialog.ConfirmingDelete:
		data.SubmitURL = fmt.Sprintf("/records/%d/delete", state.Target.ID)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.Error("failed to render record page", "error", err)
	}
}
