package topic

import (
	"context"
	"log/slog"
	"time"

	"github.com/nfrund/causal/internal/domain"
	"github.com/nfrund/causal/internal/pubsub"
)

// Service defines the Topic operations exposed to the transport layers.
type Service interface {
	// List returns every Topic.
	List(ctx context.Context) ([]*domain.Topic, error)
	// Create validates in and stores it under a new id.
	Create(ctx context.Context, in *domain.TopicInput) (*domain.Topic, error)
	// Retrieve returns one Topic or an error matching domain.ErrNotFound.
	Retrieve(ctx context.Context, id int64) (*domain.Topic, error)
	// Update validates in and overwrites the Topic with the given id.
	Update(ctx context.Context, id int64, in *domain.TopicInput) (*domain.Topic, error)
	// Delete removes the Topic with the given id.
	Delete(ctx context.Context, id int64) error
}

// serviceImpl implements the Service interface.
type serviceImpl struct {
	repo      domain.TopicRepository
	publisher pubsub.Publisher
	now       func() time.Time
}

// NewService creates a new topic service. publisher may be nil, in which case
// no change events are emitted.
func NewService(repo domain.TopicRepository, publisher pubsub.Publisher) Service {
	return &serviceImpl{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *serviceImpl) List(ctx context.Context) ([]*domain.Topic, error) {
	topics, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if topics == nil {
		topics = []*domain.Topic{}
	}
	return topics, nil
}

func (s *serviceImpl) Create(ctx context.Context, in *domain.TopicInput) (*domain.Topic, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, Created, created.ID, created)
	return created, nil
}

func (s *serviceImpl) Retrieve(ctx context.Context, id int64) (*domain.Topic, error) {
	if id < 1 {
		return nil, &domain.NotFoundError{ID: id}
	}
	return s.repo.FindByID(ctx, id)
}

// Update checks the body before the id so a malformed request never reaches storage.
func (s *serviceImpl) Update(ctx context.Context, id int64, in *domain.TopicInput) (*domain.Topic, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	if id < 1 {
		return nil, &domain.NotFoundError{ID: id}
	}

	updated, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, Updated, updated.ID, updated)
	return updated, nil
}

func (s *serviceImpl) Delete(ctx context.Context, id int64) error {
	if id < 1 {
		return &domain.NotFoundError{ID: id}
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, Deleted, id, nil)
	return nil
}

func validate(in *domain.TopicInput) error {
	if in == nil {
		return domain.NewMalformedRequest("request body is required")
	}
	return in.Validate()
}

// publish emits a change event. The write already succeeded, so failures are
// only logged.
func (s *serviceImpl) publish(ctx context.Context, event pubsub.Event[Change], id int64, t *domain.Topic) {
	if s.publisher == nil {
		return
	}
	change := Change{Type: event.Name(), TopicID: id, Topic: t, OccurredAt: s.now().UTC()}
	if err := pubsub.Publish(ctx, s.publisher, event, change); err != nil {
		slog.WarnContext(ctx, "Failed to publish topic event", "event", event.Name(), "topic_id", id, "error", err)
	}
}
