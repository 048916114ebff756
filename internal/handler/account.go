package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/devforum/internal/service"
)

// AccountHandler exposes the provider-account endpoints.
//
//	GET    /api/accounts          → HandleList (auth)
//	POST   /api/accounts          → HandleCreate (auth, self only)
//	GET    /api/accounts/{id}     → HandleGet (auth)
//	DELETE /api/accounts/{id}     → HandleDelete (auth, owner only)
//	POST   /api/accounts/provider → HandleGetByProvider (auth) — lookup, not creation
type AccountHandler struct {
	accounts *service.AccountService
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

func (h *AccountHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	accounts, total, err := h.accounts.List(r.Context(), listOptionsFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, Paginated{Items: accounts, Total: total})
}

// HandleCreate links a provider account to the calling user.
func (h *AccountHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateAccountInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	account, err := h.accounts.Create(r.Context(), callerID(r), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCreated(w, account)
}

func (h *AccountHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, account)
}

func (h *AccountHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Delete(r.Context(), callerID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, map[string]string{"status": "deleted"})
}

// HandleGetByProvider is a POST because the provider account id goes in the
// body: provider-side ids are opaque strings that don't belong in a URL.
func (h *AccountHandler) HandleGetByProvider(w http.ResponseWriter, r *http.Request) {
	var in service.ProviderLookupInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	account, err := h.accounts.GetByProvider(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, account)
}
