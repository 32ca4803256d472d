// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/MKhiriev/go-list-keeper/internal/logger"
	"github.com/MKhiriev/go-list-keeper/internal/store"
	"github.com/MKhiriev/go-list-keeper/internal/utils"
	"github.com/MKhiriev/go-list-keeper/models"
	"github.com/go-chi/chi/v5"
)

// idempotencyKeyHeader carries the client's queue-entry id so replayed
// mutations are answered with the originally stored row.
const idempotencyKeyHeader = "X-Idempotency-Key"

// deviceNameHeader labels the mutating installation for the updated_by audit
// field.
const deviceNameHeader = "X-Device-Name"

func (h *Handler) createEntity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	var req models.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	created, err := h.services.EntityService.CreateEntity(ctx, userID, req, r.Header.Get(idempotencyKeyHeader), updatedByFromRequest(r))
	if err != nil {
		log.Err(err).Msg("error creating entity")
		http.Error(w, "error creating entity", statusFromError(err))
		return
	}

	utils.WriteJSON(w, created, http.StatusCreated)
}

func (h *Handler) getEntity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	id := models.ParseEntityID(chi.URLParam(r, "id"))
	entity, err := h.services.EntityService.GetEntity(ctx, userID, id)
	if err != nil {
		log.Err(err).Str("id", id.String()).Msg("error getting entity")
		http.Error(w, "error getting entity", statusFromError(err))
		return
	}

	utils.WriteJSON(w, entity, http.StatusOK)
}

func (h *Handler) listEntities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	entities, err := h.services.EntityService.ListEntities(ctx, userID, filterFromQuery(r))
	if err != nil {
		log.Err(err).Msg("error listing entities")
		http.Error(w, "error listing entities", statusFromError(err))
		return
	}

	response := models.EntityListResponse{
		Entities: entities,
		Length:   len(entities),
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

func (h *Handler) updateEntity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	var req models.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	id := models.ParseEntityID(chi.URLParam(r, "id"))
	updated, err := h.services.EntityService.UpdateEntity(ctx, userID, id, req, updatedByFromRequest(r))
	if err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			h.writeConflict(w, r, userID, id)
			return
		}
		log.Err(err).Str("id", id.String()).Msg("error updating entity")
		http.Error(w, "error updating entity", statusFromError(err))
		return
	}

	utils.WriteJSON(w, updated, http.StatusOK)
}

func (h *Handler) deleteEntity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	var req models.DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	id := models.ParseEntityID(chi.URLParam(r, "id"))
	if err := h.services.EntityService.DeleteEntity(ctx, userID, id, req.Version, updatedByFromRequest(r)); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			h.writeConflict(w, r, userID, id)
			return
		}
		log.Err(err).Str("id", id.String()).Msg("error deleting entity")
		http.Error(w, "error deleting entity", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) bulkComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	var req models.BulkCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	response, err := h.services.EntityService.BulkComplete(ctx, userID, req, updatedByFromRequest(r))
	if err != nil {
		log.Err(err).Msg("error completing entities in bulk")
		http.Error(w, "error completing entities in bulk", statusFromError(err))
		return
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

func (h *Handler) bulkDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	var req models.BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	response, err := h.services.EntityService.BulkDelete(ctx, userID, req, updatedByFromRequest(r))
	if err != nil {
		log.Err(err).Msg("error deleting entities in bulk")
		http.Error(w, "error deleting entities in bulk", statusFromError(err))
		return
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

func (h *Handler) reorder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	var req models.ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if err := h.services.EntityService.Reorder(ctx, userID, req); err != nil {
		log.Err(err).Msg("error reordering entities")
		http.Error(w, "error reordering entities", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) icons(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, h.services.EntityService.Icons(r.Context()), http.StatusOK)
}

// writeConflict answers a version-guard rejection with the 409 body the sync
// clients' conflict classifier consumes. The current server row is attached
// when it is still live; a missing row leaves Current empty.
func (h *Handler) writeConflict(w http.ResponseWriter, r *http.Request, userID int64, id models.EntityID) {
	log := logger.FromRequest(r)

	response := models.ConflictResponse{Error: "version_conflict"}
	if current, err := h.services.EntityService.GetEntity(r.Context(), userID, id); err == nil {
		response.Current = &current
	}

	log.Debug().Str("id", id.String()).Msg("answering version conflict")
	utils.WriteJSON(w, response, http.StatusConflict)
}

// updatedByFromRequest resolves the audit label of the mutating device.
func updatedByFromRequest(r *http.Request) string {
	if device := r.Header.Get(deviceNameHeader); device != "" {
		return device
	}
	return "unknown"
}

// filterFromQuery translates the optional list query parameters into a
// repository filter. Unparseable values are ignored rather than rejected.
func filterFromQuery(r *http.Request) store.EntityFilter {
	var filter store.EntityFilter

	query := r.URL.Query()
	if raw := query.Get("kind"); raw == string(models.KindList) || raw == string(models.KindItem) {
		kind := models.ResourceKind(raw)
		filter.Kind = &kind
	}
	if raw := query.Get("parent_id"); raw != "" {
		parentID := models.ParseEntityID(raw)
		filter.ParentID = &parentID
	}
	if raw := query.Get("completed"); raw != "" {
		if completed, err := strconv.ParseBool(raw); err == nil {
			filter.Completed = &completed
		}
	}
	if raw := query.Get("include_archived"); raw != "" {
		if includeArchived, err := strconv.ParseBool(raw); err == nil {
			filter.IncludeArchived = includeArchived
		}
	}

	return filter
}
