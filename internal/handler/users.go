package handler

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/actuallystonmai/user-directory/internal/domain"
	"github.com/actuallystonmai/user-directory/internal/view"
)

// GET /
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r.URL.Query())

	res, err := h.service.ListUsers(r.Context(), q)
	if err != nil {
		h.writeServiceError(w, r, "Database error", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.views.RenderList(w, view.NewListPage(q, res)); err != nil {
		log.Printf("[handler] render list: %v", err)
		writeText(w, http.StatusInternalServerError, "Failed to render page")
	}
}

// GET /add
func (h *Handler) AddForm(w http.ResponseWriter, r *http.Request) {
	page, err := h.views.AddForm()
	if err != nil {
		log.Printf("[handler] add form: %v", err)
		writeText(w, http.StatusInternalServerError, "Failed to load page")
		return
	}
	writeHTML(w, http.StatusOK, page)
}

// POST /add
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	name, age, ok := parseUserForm(r)
	if !ok {
		writeText(w, http.StatusBadRequest, msgInvalidForm)
		return
	}

	if _, err := h.service.CreateUser(r.Context(), name, age); err != nil {
		h.writeServiceError(w, r, "Failed to add user", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// GET /edit/{id}
func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeText(w, http.StatusBadRequest, msgInvalidID)
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "Failed to load user", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.views.RenderEdit(w, user); err != nil {
		log.Printf("[handler] render edit: %v", err)
		writeText(w, http.StatusInternalServerError, "Failed to render page")
	}
}

// POST /edit/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeText(w, http.StatusBadRequest, msgInvalidID)
		return
	}
	name, age, ok := parseUserForm(r)
	if !ok {
		writeText(w, http.StatusBadRequest, msgInvalidForm)
		return
	}

	if _, err := h.service.UpdateUser(r.Context(), id, name, age); err != nil {
		h.writeServiceError(w, r, "Failed to update user", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// POST /delete/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeText(w, http.StatusBadRequest, msgInvalidID)
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		h.writeServiceError(w, r, "Failed to delete user", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: "database unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func parseListQuery(v url.Values) domain.ListQuery {
	page := 1
	if parsed, err := strconv.Atoi(strings.TrimSpace(v.Get("page"))); err == nil && parsed > 0 {
		page = parsed
	}
	return domain.ListQuery{
		Search: v.Get("search"),
		Sort:   domain.ParseSortKey(v.Get("sort")),
		Page:   page,
	}.Normalize()
}

// parseID reads everything after /edit/ or /delete/. It must be a single
// integer segment in the 32-bit range of the column.
func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "*"), 10, 32)
	if err != nil {
		return 0, false
	}
	return id, true
}

const maxFormMemory = 1 << 20

// parseUserForm reads Name and Age from a urlencoded or multipart body. Name
// is checked by the service; here only Age must parse as a 32-bit integer.
func parseUserForm(r *http.Request) (string, int, bool) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return "", 0, false
	}
	age, err := strconv.ParseInt(strings.TrimSpace(r.PostForm.Get("Age")), 10, 32)
	if err != nil {
		return "", 0, false
	}
	return r.PostForm.Get("Name"), int(age), true
}
