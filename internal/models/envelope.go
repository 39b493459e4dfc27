package models

import "encoding/json"

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SuccessResponse represents a successful API response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message *string     `json:"message,omitempty"`
}

// PageEnvelope is the upstream platform API's list payload shape.
type PageEnvelope struct {
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
	Total int64             `json:"total"`
	Data  []json.RawMessage `json:"data"`
}

// BulkDeleteRequest represents a bulk delete request
type BulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,max=100"`
}

// BulkDeleteResponse summarizes a completed bulk delete.
type BulkDeleteResponse struct {
	DeletedCount int      `json:"deletedCount"`
	DeletedIDs   []string `json:"deletedIds"`
}

// FieldEditRequest is the inline-edit payload for a single cell.
type FieldEditRequest struct {
	Field string      `json:"field" binding:"required"`
	Value interface{} `json:"value"`
}
