package server

import (
	"net/http"
	"strings"

	"github.com/ashita-ai/manabi/internal/auth"
	"github.com/ashita-ai/manabi/internal/ctxutil"
	"github.com/ashita-ai/manabi/internal/model"
)

// HandleCreateAccount handles POST /v1/accounts (admin-only). When no API
// key is supplied one is generated and returned once.
func (h *Handlers) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAccountRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := model.ValidateAccountRequest(req); err != nil {
		h.writeServiceError(w, r, "create account", err)
		return
	}

	var generated string
	if req.APIKey == "" {
		key, err := auth.GenerateAPIKey()
		if err != nil {
			h.writeInternalError(w, r, "failed to generate api key", err)
			return
		}
		req.APIKey, generated = key, key
	}
	hash, err := auth.HashAPIKey(req.APIKey)
	if err != nil {
		h.writeInternalError(w, r, "failed to hash api key", err)
		return
	}

	acc, err := h.store.CreateAccount(r.Context(), model.Account{
		Name:       req.Name,
		Role:       req.Role,
		APIKeyHash: hash,
	})
	if err != nil {
		h.writeServiceError(w, r, "create account", err)
		return
	}

	h.logger.Info("account created",
		"account", acc.Name,
		"role", acc.Role,
		"by", ctxutil.ClaimsFromContext(r.Context()).Name,
	)
	writeJSON(w, r, http.StatusCreated, model.CreateAccountResponse{Account: acc, APIKey: generated})
}

// HandleListAccounts handles GET /v1/accounts (admin-only).
func (h *Handlers) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.store.ListAccounts(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "list accounts", err)
		return
	}
	writeList(w, r, accounts, len(accounts), len(accounts), len(accounts), 0)
}
