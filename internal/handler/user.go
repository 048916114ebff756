package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/devforum/internal/service"
)

// UserHandler exposes the user endpoints.
//
//	GET    /api/users      → HandleList
//	POST   /api/users      → HandleCreate (auth)
//	GET    /api/users/{id} → HandleGet
//	PUT    /api/users/{id} → HandleUpdate (auth, self only)
//	DELETE /api/users/{id} → HandleDelete (auth, self only)
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, total, err := h.users.List(r.Context(), listOptionsFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, Paginated{Items: users, Total: total})
}

func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateUserInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCreated(w, user)
}

func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, user)
}

func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateProfileInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Update(r.Context(), callerID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, user)
}

func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), callerID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, map[string]string{"status": "deleted"})
}
