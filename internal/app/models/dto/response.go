package dto

import "time"

// APIResponse is the envelope of every successful response
type APIResponse struct {
	Success    bool            `json:"success" example:"true"`
	Data       interface{}     `json:"data,omitempty"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
	Error      *ErrorDetail    `json:"error,omitempty"`
	Timestamp  time.Time       `json:"timestamp" example:"2025-04-23T12:01:05.123Z"`
}

// PaginationInfo describes the window of a search result
type PaginationInfo struct {
	Limit  uint64 `json:"limit" example:"100"`
	Offset uint64 `json:"offset" example:"0"`
	Count  int    `json:"count" example:"100"`
	// HasMore is true when the page was full, so a next page may exist
	HasMore bool `json:"hasMore" example:"true"`
}

// NewAPIResponse wraps data in a successful envelope
func NewAPIResponse(data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// SuccessResponse represents a standard success response for API endpoints
type SuccessResponse struct {
	Message string `json:"message"`
}
