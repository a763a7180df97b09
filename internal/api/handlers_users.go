// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package api

import (
	"net/http"

	"github.com/tomtom215/vidstream/internal/models"
)

// SyncProfile creates or refreshes the caller's profile from the identity
// provider's claims.
//
// @Summary Create or update my profile
// @Tags Users
// @Accept json
// @Produce json
// @Param body body models.UpsertProfileRequest true "Profile"
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=models.User} "Updated"
// @Success 201 {object} models.APIResponse{data=models.User} "Created"
// @Failure 400 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse "Email already in use"
// @Router /users/me [put]
func (h *Handler) SyncProfile(w http.ResponseWriter, r *http.Request) {
	s, ok := subject(w, r)
	if !ok {
		return
	}
	var req models.UpsertProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, created, err := h.users.Sync(r.Context(), s.ID, s.Role, &req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondData(w, status, u)
}

// Me returns the caller's profile.
//
// @Summary Get my profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=models.User}
// @Failure 404 {object} models.APIResponse "Profile not synced yet"
// @Router /users/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	s, ok := subject(w, r)
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), s.ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, u)
}

// UpdateProfile applies a partial edit to the caller's profile.
//
// @Summary Edit my profile
// @Tags Users
// @Accept json
// @Produce json
// @Param body body models.UpdateProfileRequest true "Fields to change"
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=models.User}
// @Failure 404 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse
// @Router /users/me [patch]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	s, ok := subject(w, r)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.users.Update(r.Context(), s.ID, &req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, u)
}

// DeleteMe removes the caller's profile and analytics records.
//
// @Summary Delete my profile
// @Tags Users
// @Security BearerAuth
// @Success 204
// @Failure 404 {object} models.APIResponse
// @Router /users/me [delete]
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	s, ok := subject(w, r)
	if !ok {
		return
	}
	if err := h.users.Delete(r.Context(), s.ID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetSubscription sets the caller's subscription flag.
//
// @Summary Set my subscription
// @Tags Users
// @Accept json
// @Produce json
// @Param body body models.SubscriptionRequest true "Subscription flag"
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=models.User}
// @Failure 404 {object} models.APIResponse
// @Router /users/me/subscription [put]
func (h *Handler) SetSubscription(w http.ResponseWriter, r *http.Request) {
	s, ok := subject(w, r)
	if !ok {
		return
	}
	var req models.SubscriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.users.SetSubscription(r.Context(), s.ID, *req.Subscription)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, u)
}

// GetUser returns one user.
//
// @Summary Get a user
// @Tags Users
// @Produce json
// @Param id path string true "User UUID"
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=models.User}
// @Failure 404 {object} models.APIResponse
// @Router /users/{id} [get]
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, u)
}

// UserSubscription reports whether a user is subscribed.
//
// @Summary Get a user's subscription
// @Tags Users
// @Produce json
// @Param id path string true "User UUID"
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=models.SubscriptionStatus}
// @Failure 404 {object} models.APIResponse
// @Router /users/{id}/subscription [get]
func (h *Handler) UserSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	st, err := h.users.Subscription(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, st)
}

// ListUsers returns one page of users.
//
// @Summary List users
// @Tags Users
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=[]models.User}
// @Router /users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, ok := h.pageParams(w, r)
	if !ok {
		return
	}
	users, total, err := h.users.List(r.Context(), page)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondPage(w, users, page, total)
}
