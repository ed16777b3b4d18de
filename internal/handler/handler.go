package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/actuallystonmai/user-directory/internal/domain"
	"github.com/actuallystonmai/user-directory/internal/view"
)

// UserService is what the handlers need from the service layer.
type UserService interface {
	ListUsers(ctx context.Context, q domain.ListQuery) (*domain.ListResult, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	CreateUser(ctx context.Context, name string, age int) (*domain.User, error)
	UpdateUser(ctx context.Context, id int64, name string, age int) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

type Handler struct {
	service        UserService
	views          *view.Renderer
	exposeDBErrors bool
}

func NewHandler(svc UserService, views *view.Renderer, exposeDBErrors bool) *Handler {
	return &Handler{
		service:        svc,
		views:          views,
		exposeDBErrors: exposeDBErrors,
	}
}

// write JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writes a plain-text response
func writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(message))
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}
