package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-list-keeper/internal/adapter"
	"github.com/MKhiriev/go-list-keeper/internal/logger"
	"github.com/MKhiriev/go-list-keeper/internal/store"
	"github.com/MKhiriev/go-list-keeper/models"
)

// prefKeyAuthToken is the preferences key the session token is stored under.
const prefKeyAuthToken = "auth.token"

type clientAuthService struct {
	localStore *store.ClientStorages
	adapter    adapter.ServerAdapter

	logger *logger.Logger
}

// NewClientAuthService constructs the client-side auth flow over the server
// adapter and the durable preferences store.
func NewClientAuthService(localStore *store.ClientStorages, serverAdapter adapter.ServerAdapter, logger *logger.Logger) ClientAuthService {
	return &clientAuthService{
		localStore: localStore,
		adapter:    serverAdapter,
		logger:     logger,
	}
}

func (s *clientAuthService) Register(ctx context.Context, user models.User) error {
	log := logger.FromContext(ctx)

	if _, err := s.adapter.Register(ctx, user); err != nil {
		log.Err(err).Str("login", user.Login).Msg("registration on server failed")
		return fmt.Errorf("registration on server failed: %w", err)
	}

	if err := s.localStore.Preferences.Set(ctx, prefKeyAuthToken, s.adapter.Token()); err != nil {
		log.Err(err).Msg("failed to persist session token")
		return fmt.Errorf("failed to persist session token: %w", err)
	}

	return nil
}

// Login authenticates, persists the session token, and hydrates the cache
// with the account's server-side entities so a fresh install starts with the
// full replica.
func (s *clientAuthService) Login(ctx context.Context, user models.User) error {
	log := logger.FromContext(ctx)

	if _, err := s.adapter.Login(ctx, user); err != nil {
		log.Err(err).Str("login", user.Login).Msg("login on server failed")
		return fmt.Errorf("login on server failed: %w", err)
	}

	if err := s.localStore.Preferences.Set(ctx, prefKeyAuthToken, s.adapter.Token()); err != nil {
		log.Err(err).Msg("failed to persist session token")
		return fmt.Errorf("failed to persist session token: %w", err)
	}

	entities, err := s.adapter.ListEntities(ctx)
	if err != nil {
		log.Err(err).Msg("failed to fetch entities for cache hydration")
		return fmt.Errorf("failed to fetch entities for cache hydration: %w", err)
	}

	if err = s.localStore.EntityCache.PutMany(ctx, entities...); err != nil {
		log.Err(err).Msg("failed to hydrate entity cache")
		return fmt.Errorf("failed to hydrate entity cache: %w", err)
	}

	log.Info().Int("entities", len(entities)).Msg("logged in, cache hydrated")

	return nil
}

func (s *clientAuthService) Restore(ctx context.Context) error {
	token, err := s.localStore.Preferences.Get(ctx, prefKeyAuthToken)
	if errors.Is(err, store.ErrPreferenceNotFound) {
		return ErrNotAuthenticated
	}
	if err != nil {
		return fmt.Errorf("failed to load session token: %w", err)
	}
	if token == "" {
		return ErrNotAuthenticated
	}

	s.adapter.SetToken(token)

	return nil
}

func (s *clientAuthService) Logout(ctx context.Context) error {
	s.adapter.SetToken("")

	if err := s.localStore.Preferences.Delete(ctx, prefKeyAuthToken); err != nil {
		return fmt.Errorf("failed to drop session token: %w", err)
	}

	return nil
}
