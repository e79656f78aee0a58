package domain

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TitleMaxLength is the largest title accepted, counted in runes.
const TitleMaxLength = 100

// validatorInstance is a package-level validator instance.
// Using a single instance is more efficient as it caches struct information.
var validatorInstance = newValidator()

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	return newValidator()
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Topic is a titled piece of content with free-text tags.
type Topic struct {
	ID      int64    `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// TopicInput is the full replacement record accepted by create and update.
// Empty strings are valid. Tags must be non-nil but may be empty; callers
// decoding untrusted input check field presence before building one.
type TopicInput struct {
	Title   string   `json:"title" validate:"max=100"`
	Content string   `json:"content"`
	Tags    []string `json:"tags" validate:"required"`
}

// Validate checks the input and returns a *RequestError describing the first
// problem found.
func (in *TopicInput) Validate() error {
	return TranslateValidation(validatorInstance.Struct(in))
}

// Topic builds the entity for this input. Tags are copied and never nil.
func (in *TopicInput) Topic(id int64) *Topic {
	tags := make([]string, len(in.Tags))
	copy(tags, in.Tags)
	return &Topic{ID: id, Title: in.Title, Content: in.Content, Tags: tags}
}

// TranslateValidation turns validator errors into a *RequestError with a
// readable message. Other errors pass through unchanged.
func TranslateValidation(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	return NewMalformedRequest("%s", strings.Join(msgs, "; "))
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed the %q rule", fe.Field(), fe.Tag())
	}
}

// TopicRepository is the persistence contract every storage backend implements.
// Implementations return errors matching ErrNotFound or ErrStorageUnavailable.
type TopicRepository interface {
	// List returns every Topic in ascending id order.
	List(ctx context.Context) ([]*Topic, error)

	// Create assigns a new id and stores the Topic.
	Create(ctx context.Context, in *TopicInput) (*Topic, error)

	// FindByID returns the Topic with the given id.
	FindByID(ctx context.Context, id int64) (*Topic, error)

	// Update overwrites title, content and tags of an existing Topic.
	Update(ctx context.Context, id int64, in *TopicInput) (*Topic, error)

	// DeleteByID removes the Topic permanently.
	DeleteByID(ctx context.Context, id int64) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend connection.
	Close(ctx context.Context) error
}
