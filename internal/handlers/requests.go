package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/nfrund/causal/internal/domain"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator that reports fields by JSON name.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: domain.NewValidator()}
}

// Validate implements the echo.Validator interface. Failures come back as
// domain.RequestError values matching domain.ErrMalformedRequest.
func (cv *CustomValidator) Validate(i interface{}) error {
	return domain.TranslateValidation(cv.validator.Struct(i))
}

// TopicRequest is the body of POST and PUT on /topics. Pointer fields tell an
// absent field from an empty one.
type TopicRequest struct {
	Title   *string   `json:"title" validate:"required"`
	Content *string   `json:"content" validate:"required"`
	Tags    *[]string `json:"tags" validate:"required"`
}

// Input converts a validated request into the domain input.
func (r *TopicRequest) Input() *domain.TopicInput {
	in := &domain.TopicInput{}
	if r.Title != nil {
		in.Title = *r.Title
	}
	if r.Content != nil {
		in.Content = *r.Content
	}
	if r.Tags != nil {
		in.Tags = *r.Tags
	}
	return in
}
