// Package models defines the core data structures for ReviewPipe.
//
// It includes the persisted Review record, the per-user conversation state,
// and the JSON envelope used by API error responses.
package models

import "time"

// Stage identifies where a user is in the review dialogue.
type Stage string

const (
	// StageStart is the implicit stage of a user we have never heard from.
	StageStart Stage = "start"
	// StageAwaitingProduct means we asked which product to review.
	StageAwaitingProduct Stage = "awaiting_product"
	// StageAwaitingName means we asked for the reviewer's name.
	StageAwaitingName Stage = "awaiting_name"
	// StageAwaitingReview means we asked for the review text itself.
	StageAwaitingReview Stage = "awaiting_review"
)

// IsValidStage reports whether s is one of the dialogue stages.
// Anything else triggers a defensive conversation reset.
func IsValidStage(s Stage) bool {
	switch s {
	case StageStart, StageAwaitingProduct, StageAwaitingName, StageAwaitingReview:
		return true
	}
	return false
}

// ConversationState holds one in-progress dialogue, keyed by the sender's
// contact number. Product is set from StageAwaitingName onward, Name from
// StageAwaitingReview onward; the flow package maintains that invariant.
// There is no terminal stage: completion deletes the entry.
type ConversationState struct {
	Stage       Stage
	Product     string
	Name        string
	LastUpdated time.Time
}

// Review is a completed, persisted submission. ID and CreatedAt are assigned
// by the store at save time; the record is immutable afterwards.
//
// UserName, ProductName and ProductReview are pointers so that legacy rows
// with NULL columns round-trip as JSON null. Reviews produced by the dialogue
// always have all three set (possibly to empty strings; empty answers are
// accepted at every stage).
type Review struct {
	ID            int64     `json:"id"`
	ContactNumber string    `json:"contactNumber"`
	UserName      *string   `json:"userName"`
	ProductName   *string   `json:"productName"`
	ProductReview *string   `json:"productReview"`
	CreatedAt     time.Time `json:"createdAt"`
}

// StringPtr returns a pointer to s. Convenience for building Review values.
func StringPtr(s string) *string {
	return &s
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse is the JSON envelope for non-collection API responses.
// The review listing endpoints return a bare array instead; this envelope is
// used for error payloads.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}
