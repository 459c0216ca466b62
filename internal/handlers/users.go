package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/alfagnish/userreg/internal/registry"
	"github.com/alfagnish/userreg/internal/views"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const detailUserNotFound = "User was not found"

// UsersHandler serves the user CRUD endpoints on top of a registry.
type UsersHandler struct {
	reg  *registry.Registry
	view *views.Renderer
	log  *zap.Logger
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(reg *registry.Registry, view *views.Renderer, log *zap.Logger) *UsersHandler {
	return &UsersHandler{reg: reg, view: view, log: log}
}

// Routes registers user routes on the given chi router.
func (h *UsersHandler) Routes(r chi.Router) {
	r.Get("/", h.ListUsers)
	r.Get("/users/{user_id}", h.GetUser)
	r.Post("/user/{username}/{age}", h.CreateUser)
	r.Put("/user/{user_id}/{username}/{age}", h.UpdateUser)
	r.Delete("/user/{user_id}", h.DeleteUser)
}

// ListUsers renders every user as an HTML page.
func (h *UsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, func(out io.Writer) error {
		return h.view.Users(out, h.reg.List())
	})
}

// GetUser renders a single user as an HTML page.
func (h *UsersHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	p, err := bindPath(r, paramUserID)
	if err != nil {
		h.badInput(w, err)
		return
	}

	u, err := h.reg.Get(p.UserID)
	if err != nil {
		h.registryError(w, err)
		return
	}

	h.renderPage(w, r, func(out io.Writer) error {
		return h.view.User(out, u)
	})
}

// CreateUser adds a new user and returns it as JSON.
func (h *UsersHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	p, err := bindPath(r, paramUsername, paramAge)
	if err != nil {
		h.badInput(w, err)
		return
	}

	u := h.reg.Create(p.Username, p.Age)
	h.log.Info("user created", zap.Int("user_id", u.ID), zap.String("username", u.Username))
	h.respond(w, http.StatusOK, u)
}

// UpdateUser replaces the username and age of an existing user.
func (h *UsersHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	p, err := bindPath(r, paramUserID, paramUsername, paramAge)
	if err != nil {
		h.badInput(w, err)
		return
	}

	u, err := h.reg.Update(p.UserID, p.Username, p.Age)
	if err != nil {
		h.registryError(w, err)
		return
	}
	h.log.Info("user updated", zap.Int("user_id", u.ID))
	h.respond(w, http.StatusOK, u)
}

// DeleteUser removes a user and replies 204 with no body.
func (h *UsersHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	p, err := bindPath(r, paramUserID)
	if err != nil {
		h.badInput(w, err)
		return
	}

	if err := h.reg.Delete(p.UserID); err != nil {
		h.registryError(w, err)
		return
	}
	h.log.Info("user deleted", zap.Int("user_id", p.UserID))
	w.WriteHeader(http.StatusNoContent)
}

// renderPage replies 500 when the page fails to render. Once any of the
// page has been written the status is already sent, so a failure is only
// logged.
func (h *UsersHandler) renderPage(w http.ResponseWriter, r *http.Request, render func(io.Writer) error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
	err := render(ww)
	if err == nil {
		return
	}
	if ww.Status() != 0 {
		h.log.Warn("write page", zap.Error(err))
		return
	}
	h.log.Error("render page", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func (h *UsersHandler) respond(w http.ResponseWriter, status int, v interface{}) {
	if err := writeJSON(w, status, v); err != nil {
		h.log.Warn("write response", zap.Error(err))
	}
}

func (h *UsersHandler) badInput(w http.ResponseWriter, err error) {
	if writeValidationError(w, err) {
		return
	}
	h.log.Error("bind path params", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func (h *UsersHandler) registryError(w http.ResponseWriter, err error) {
	if errors.Is(err, registry.ErrNotFound) {
		writeError(w, http.StatusNotFound, detailUserNotFound)
		return
	}
	h.log.Error("registry operation", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}
