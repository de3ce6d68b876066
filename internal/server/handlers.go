package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ashita-ai/manabi/internal/auth"
	"github.com/ashita-ai/manabi/internal/ctxutil"
	"github.com/ashita-ai/manabi/internal/model"
	"github.com/ashita-ai/manabi/internal/search"
	"github.com/ashita-ai/manabi/internal/service/schools"
	"github.com/ashita-ai/manabi/internal/storage"
)

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	store               storage.Store
	schools             *schools.Service
	jwtMgr              *auth.JWTManager
	index               search.Index // nil when similarity search runs in process
	logger              *slog.Logger
	startedAt           time.Time
	version             string
	maxRequestBodyBytes int64
	openapiSpec         []byte
}

// HandlersDeps holds all dependencies for constructing Handlers.
// Optional (nil-safe): Index, OpenAPISpec.
type HandlersDeps struct {
	Store               storage.Store
	Schools             *schools.Service
	JWTMgr              *auth.JWTManager
	Index               search.Index
	Logger              *slog.Logger
	Version             string
	MaxRequestBodyBytes int64
	OpenAPISpec         []byte
}

// NewHandlers creates a new Handlers with all dependencies.
func NewHandlers(d HandlersDeps) *Handlers {
	maxBody := d.MaxRequestBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	return &Handlers{
		store:               d.Store,
		schools:             d.Schools,
		jwtMgr:              d.JWTMgr,
		index:               d.Index,
		logger:              d.Logger,
		startedAt:           time.Now(),
		version:             d.Version,
		maxRequestBodyBytes: maxBody,
		openapiSpec:         d.OpenAPISpec,
	}
}

// HandleAuthToken handles POST /auth/token, exchanging an account name and
// API key for a JWT.
func (h *Handlers) HandleAuthToken(w http.ResponseWriter, r *http.Request) {
	var req model.AuthTokenRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.Name == "" || req.APIKey == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "name and api_key are required")
		return
	}

	acc, err := h.store.GetAccountByName(r.Context(), req.Name)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			h.writeInternalError(w, r, "failed to load account", err)
			return
		}
		// Unknown accounts cost the same as a failed check.
		auth.DummyVerify()
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid credentials")
		return
	}

	valid, err := auth.VerifyAPIKey(req.APIKey, acc.APIKeyHash)
	if err != nil || !valid {
		if err != nil {
			h.logger.Warn("auth: stored key hash unreadable", "account", acc.Name, "error", err)
		}
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := h.jwtMgr.IssueToken(acc)
	if err != nil {
		h.writeInternalError(w, r, "failed to issue token", err)
		return
	}
	h.logger.Info("token issued", "account", acc.Name, "role", acc.Role, "request_id", ctxutil.RequestIDFromContext(r.Context()))

	writeJSON(w, r, http.StatusOK, model.AuthTokenResponse{Token: token, ExpiresAt: expiresAt})
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := model.HealthResponse{
		Status:  "healthy",
		Version: h.version,
		Backend: h.store.Backend(),
		Storage: "connected",
		Search:  "in-process",
		Uptime:  int64(time.Since(h.startedAt).Seconds()),
	}
	httpStatus := http.StatusOK

	if err := h.store.Ping(r.Context()); err != nil {
		resp.Storage = "disconnected"
		resp.Status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	// Similarity falls back to an in-process scan, so a lost index only
	// degrades the service.
	if h.index != nil {
		if err := h.index.Healthy(r.Context()); err != nil {
			resp.Search = "disconnected"
			if resp.Status == "healthy" {
				resp.Status = "degraded"
			}
		} else {
			resp.Search = "connected"
		}
	}

	writeJSON(w, r, httpStatus, resp)
}

// HandleOpenAPISpec serves the embedded OpenAPI specification.
func (h *Handlers) HandleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	if len(h.openapiSpec) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.openapiSpec)
}

// SeedAdmin creates the "admin" account when no accounts exist.
func (h *Handlers) SeedAdmin(ctx context.Context, adminAPIKey string) error {
	count, err := h.store.CountAccounts(ctx)
	if err != nil {
		return fmt.Errorf("seed admin: count accounts: %w", err)
	}
	if count > 0 {
		h.logger.Info("accounts exist, skipping admin seed", "accounts", count)
		return nil
	}
	if adminAPIKey == "" {
		return errors.New("seed admin: MANABI_ADMIN_API_KEY is empty and no accounts exist; set it to bootstrap admin access")
	}

	hash, err := auth.HashAPIKey(adminAPIKey)
	if err != nil {
		return fmt.Errorf("seed admin: hash key: %w", err)
	}
	if _, err := h.store.CreateAccount(ctx, model.Account{
		Name:       "admin",
		Role:       model.RoleAdmin,
		APIKeyHash: hash,
	}); err != nil {
		return fmt.Errorf("seed admin: create account: %w", err)
	}
	h.logger.Info("seeded initial admin account")
	return nil
}

// writeServiceError maps service and storage errors onto the API envelope.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeErrorDetails(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "validation failed", verr.Fields)
	case errors.Is(err, schools.ErrValidation):
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, validationMessage(err))
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "not found")
	case errors.Is(err, storage.ErrConflict):
		writeError(w, r, http.StatusConflict, model.ErrCodeConflict, "conflicts with an existing record")
	default:
		h.writeInternalError(w, r, op+" failed", err)
	}
}

// validationMessage strips the sentinel prefix from a validation error.
func validationMessage(err error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, schools.ErrValidation.Error()+": "); ok {
		return rest
	}
	return msg
}

func (h *Handlers) writeInternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, "error", err, "path", r.URL.Path, "request_id", ctxutil.RequestIDFromContext(r.Context()))
	writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, msg)
}

// --- Shared helpers ---

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := r.PathValue(key)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%s is required", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %s", key, raw)
	}
	return id, nil
}

// maxQueryLimit is the maximum allowed value for limit query parameters.
const maxQueryLimit = 1000

// maxQueryOffset prevents absurdly large offsets.
const maxQueryOffset = 100_000

func queryInt(r *http.Request, key string, defaultVal int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

// queryPage returns limit clamped to [1, maxQueryLimit] and offset clamped
// to [0, maxQueryOffset].
func queryPage(r *http.Request, defaultLimit int) (int, int, error) {
	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil {
		return 0, 0, err
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	return min(max(limit, 1), maxQueryLimit), min(max(offset, 0), maxQueryOffset), nil
}
