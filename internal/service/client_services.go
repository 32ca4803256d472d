package service

import (
	"github.com/MKhiriev/go-list-keeper/internal/adapter"
	"github.com/MKhiriev/go-list-keeper/internal/config"
	"github.com/MKhiriev/go-list-keeper/internal/logger"
	"github.com/MKhiriev/go-list-keeper/internal/netmon"
	"github.com/MKhiriev/go-list-keeper/internal/store"
	"github.com/MKhiriev/go-list-keeper/internal/validators"
)

type ClientServices struct {
	AuthService      ClientAuthService
	MutationService  MutationService
	SyncDriver       SyncDriver
	ConflictResolver ConflictResolver
	SyncJob          ClientSyncJob
}

func NewClientServices(localStore *store.ClientStorages, serverAdapter adapter.ServerAdapter, monitor netmon.Monitor, cfg *config.ClientConfig, logger *logger.Logger) *ClientServices {
	validator := validators.NewEntityValidator()

	authSvc := NewClientAuthService(localStore, serverAdapter, logger)
	mutationSvc := NewMutationService(localStore, validator, cfg.App, logger)
	resolver := NewConflictResolver(localStore, logger)
	driver := NewSyncDriver(localStore, serverAdapter, monitor, resolver, cfg.Sync, logger)

	return &ClientServices{
		AuthService:      authSvc,
		MutationService:  mutationSvc,
		SyncDriver:       driver,
		ConflictResolver: resolver,
		SyncJob:          NewClientSyncJob(driver),
	}
}
