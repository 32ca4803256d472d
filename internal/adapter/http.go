package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/MKhiriev/go-list-keeper/internal/config"
	"github.com/MKhiriev/go-list-keeper/internal/logger"
	"github.com/MKhiriev/go-list-keeper/internal/utils"
	"github.com/MKhiriev/go-list-keeper/models"
	"github.com/go-resty/resty/v2"
)

// idempotencyKeyHeader carries the queue-entry id of a drained mutation so
// the server can detect replays.
const idempotencyKeyHeader = "X-Idempotency-Key"

type httpServerAdapter struct {
	client *utils.HTTPClient

	token string

	logger *logger.Logger
}

// NewHTTPServerAdapter constructs an HTTP/REST implementation of
// [ServerAdapter]. It normalises and validates the base URL from
// adapterCfg.HTTPAddress and configures the underlying HTTP client with the
// resolved base URL and request timeout.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as
// a valid URL.
func NewHTTPServerAdapter(adapterCfg config.ClientAdapter, logger *logger.Logger) (ServerAdapter, error) {
	client := utils.NewHTTPClient()
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	client.
		SetBaseURL(baseURL).
		SetTimeout(adapterCfg.RequestTimeout)

	return &httpServerAdapter{client: client, logger: logger}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [ServerAdapter]. It stores token (whitespace-trimmed)
// for use in the Authorization header of all subsequent authenticated
// requests.
func (h *httpServerAdapter) SetToken(token string) {
	h.token = strings.TrimSpace(token)
}

// Token implements [ServerAdapter]. It returns the bearer token currently
// held by the adapter, or an empty string if none has been set.
func (h *httpServerAdapter) Token() string {
	return h.token
}

// Register implements [ServerAdapter]. It POSTs the user credentials to
// POST /api/auth/register. On success the bearer token is extracted from the
// Authorization response header and stored via SetToken. Returns an error if
// the request fails, the server returns a non-2xx status, or the token cannot
// be parsed.
func (h *httpServerAdapter) Register(ctx context.Context, user models.User) (models.User, error) {
	var createdUser models.User

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(user).
		SetResult(&createdUser).
		Post("/api/auth/register")
	if err != nil {
		return models.User{}, fmt.Errorf("register request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.User{}, err
	}

	token, err := utils.ParseBearerToken(resp.Header().Get("Authorization"))
	if err != nil {
		return models.User{}, fmt.Errorf("register parse bearer token: %w", err)
	}

	h.SetToken(token)
	return createdUser, nil
}

// Login implements [ServerAdapter]. It POSTs the credentials to
// POST /api/auth/login. On success the bearer token is extracted from the
// Authorization response header and stored via SetToken. Returns an error if
// the request fails, the server returns a non-2xx status, or the token cannot
// be parsed.
func (h *httpServerAdapter) Login(ctx context.Context, user models.User) (models.User, error) {
	var foundUser models.User

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(user).
		SetResult(&foundUser).
		Post("/api/auth/login")
	if err != nil {
		return user, fmt.Errorf("login request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return user, err
	}

	token, err := utils.ParseBearerToken(resp.Header().Get("Authorization"))
	if err != nil {
		return user, fmt.Errorf("login parse bearer token: %w", err)
	}

	h.SetToken(token)
	return foundUser, nil
}

// Ping implements [ServerAdapter]. It GETs the unauthenticated health
// endpoint; any non-2xx status or transport failure counts as unreachable.
func (h *httpServerAdapter) Ping(ctx context.Context) error {
	resp, err := h.client.R().SetContext(ctx).Get("/api/health")
	if err != nil {
		return fmt.Errorf("ping request: %w", err)
	}

	return mapHTTPError(resp)
}

// CreateEntity implements [ServerAdapter]. It POSTs the new entity to
// POST /api/entities with the idempotency key attached and decodes the stored
// row from the response. Requires a valid bearer token.
func (h *httpServerAdapter) CreateEntity(ctx context.Context, req models.CreateRequest, idempotencyKey string) (models.Entity, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(idempotencyKeyHeader, idempotencyKey).
		SetBody(req).
		Post("/api/entities")
	if err != nil {
		return models.Entity{}, fmt.Errorf("create entity request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Entity{}, err
	}

	var entity models.Entity
	if err = json.Unmarshal(resp.Body(), &entity); err != nil {
		return models.Entity{}, fmt.Errorf("decode create entity response: %w", err)
	}

	return entity, nil
}

// UpdateEntity implements [ServerAdapter]. It PUTs the full mutable field
// set to PUT /api/entities/{id}. Returns a [ConflictError] on HTTP 409.
// Requires a valid bearer token.
func (h *httpServerAdapter) UpdateEntity(ctx context.Context, id models.EntityID, req models.UpdateRequest, idempotencyKey string) (models.Entity, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(idempotencyKeyHeader, idempotencyKey).
		SetBody(req).
		Put("/api/entities/" + url.PathEscape(id.String()))
	if err != nil {
		return models.Entity{}, fmt.Errorf("update entity request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Entity{}, err
	}

	var entity models.Entity
	if err = json.Unmarshal(resp.Body(), &entity); err != nil {
		return models.Entity{}, fmt.Errorf("decode update entity response: %w", err)
	}

	return entity, nil
}

// DeleteEntity implements [ServerAdapter]. It sends the version guard in the
// body of DELETE /api/entities/{id}. Returns a [ConflictError] on HTTP 409;
// deleting an already-absent resource yields 204 and a nil error. Requires a
// valid bearer token.
func (h *httpServerAdapter) DeleteEntity(ctx context.Context, id models.EntityID, version int64, idempotencyKey string) error {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(idempotencyKeyHeader, idempotencyKey).
		SetBody(models.DeleteRequest{Version: version}).
		Delete("/api/entities/" + url.PathEscape(id.String()))
	if err != nil {
		return fmt.Errorf("delete entity request: %w", err)
	}

	return mapHTTPError(resp)
}

// GetEntity implements [ServerAdapter]. It GETs a single entity from
// GET /api/entities/{id}. Requires a valid bearer token.
func (h *httpServerAdapter) GetEntity(ctx context.Context, id models.EntityID) (models.Entity, error) {
	resp, err := h.authedRequest(ctx).
		Get("/api/entities/" + url.PathEscape(id.String()))
	if err != nil {
		return models.Entity{}, fmt.Errorf("get entity request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Entity{}, err
	}

	var entity models.Entity
	if err = json.Unmarshal(resp.Body(), &entity); err != nil {
		return models.Entity{}, fmt.Errorf("decode get entity response: %w", err)
	}

	return entity, nil
}

// ListEntities implements [ServerAdapter]. It GETs every live entity of the
// account from GET /api/entities. Requires a valid bearer token.
func (h *httpServerAdapter) ListEntities(ctx context.Context) ([]models.Entity, error) {
	resp, err := h.authedRequest(ctx).Get("/api/entities")
	if err != nil {
		return nil, fmt.Errorf("list entities request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var lr models.EntityListResponse
	if err = json.Unmarshal(resp.Body(), &lr); err != nil {
		return nil, fmt.Errorf("decode list entities response: %w", err)
	}

	return lr.Entities, nil
}

func (h *httpServerAdapter) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}
