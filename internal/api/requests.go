// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/inkpost/internal/models"
	"github.com/tomtom215/inkpost/internal/validation"
)

// SimilarPostsRequest holds the parameters of GET /posts/{postID}/similar.
// The engine clamps Limit further to its configured maximum.
type SimilarPostsRequest struct {
	PostID int64 `path:"postID" validate:"min=1"`
	Limit  int   `query:"limit" validate:"min=1,max=1000"`
}

// RecommendationsRequest holds the parameters of GET /users/{userID}/recommendations.
type RecommendationsRequest struct {
	UserID int64 `path:"userID" validate:"min=1"`
	Limit  int   `query:"limit" validate:"min=1,max=1000"`
}

// RebuildRequest holds the parameters of POST /recommendations/rebuild.
type RebuildRequest struct {
	Force bool `query:"force"`
}

// paramError is a parse failure of a single parameter. Its API shape
// matches a single validator failure.
type paramError struct {
	field   string
	kind    string
	value   string
	message string
}

func (e *paramError) toAPIError() *models.APIError {
	return &models.APIError{
		Code:    ErrCodeValidation,
		Message: e.message,
		Details: map[string]interface{}{
			"field": e.field,
			"tag":   e.kind,
			"value": e.value,
		},
	}
}

// pathInt64 parses a chi URL parameter.
func pathInt64(r *http.Request, name string) (int64, *paramError) {
	raw := chi.URLParam(r, name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &paramError{field: name, kind: "integer", value: raw, message: name + " must be an integer"}
	}
	return v, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, *paramError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{field: name, kind: "integer", value: raw, message: name + " must be an integer"}
	}
	return v, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, name string) (bool, *paramError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &paramError{field: name, kind: "boolean", value: raw, message: name + " must be a boolean"}
	}
	return v, nil
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil if validation passes.
func validateRequest(v interface{}) *models.APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}

	apiErr := validationErr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

func parseSimilarPostsRequest(r *http.Request, defaultLimit int) (*SimilarPostsRequest, *models.APIError) {
	postID, perr := pathInt64(r, "postID")
	if perr != nil {
		return nil, perr.toAPIError()
	}
	limit, perr := queryInt(r, "limit", defaultLimit)
	if perr != nil {
		return nil, perr.toAPIError()
	}

	req := &SimilarPostsRequest{PostID: postID, Limit: limit}
	if apiErr := validateRequest(req); apiErr != nil {
		return nil, apiErr
	}
	return req, nil
}

func parseRecommendationsRequest(r *http.Request, defaultLimit int) (*RecommendationsRequest, *models.APIError) {
	userID, perr := pathInt64(r, "userID")
	if perr != nil {
		return nil, perr.toAPIError()
	}
	limit, perr := queryInt(r, "limit", defaultLimit)
	if perr != nil {
		return nil, perr.toAPIError()
	}

	req := &RecommendationsRequest{UserID: userID, Limit: limit}
	if apiErr := validateRequest(req); apiErr != nil {
		return nil, apiErr
	}
	return req, nil
}

func parseRebuildRequest(r *http.Request) (*RebuildRequest, *models.APIError) {
	force, perr := queryBool(r, "force")
	if perr != nil {
		return nil, perr.toAPIError()
	}
	return &RebuildRequest{Force: force}, nil
}
