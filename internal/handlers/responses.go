package handlers

import "github.com/nfrund/causal/internal/domain"

// Error codes carried by ErrorResponse.
const (
	CodeNotFound           = "not_found"
	CodeMalformedRequest   = "malformed_request"
	CodeStorageUnavailable = "storage_unavailable"
	CodeInternal           = "internal_error"
	CodeHTTP               = "http_error"
)

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TopicResponse is the wire form of a Topic. Tags is never null.
type TopicResponse struct {
	ID      int64    `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// NewTopicResponse creates a TopicResponse DTO from a domain.Topic.
func NewTopicResponse(t *domain.Topic) *TopicResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return &TopicResponse{ID: t.ID, Title: t.Title, Content: t.Content, Tags: tags}
}

// NewTopicListResponse maps a slice of topics, returning [] for none.
func NewTopicListResponse(topics []*domain.Topic) []*TopicResponse {
	out := make([]*TopicResponse, 0, len(topics))
	for _, t := range topics {
		out = append(out, NewTopicResponse(t))
	}
	return out
}
