package topic

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nfrund/causal/internal/database"
	"github.com/nfrund/causal/internal/domain"
	"github.com/nfrund/causal/internal/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher captures every message instead of delivering it.
type recordingPublisher struct {
	mu       sync.Mutex
	messages []pubsub.Message
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, msg pubsub.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) changes(t *testing.T) []Change {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Change, 0, len(p.messages))
	for _, msg := range p.messages {
		var c Change
		require.NoError(t, json.Unmarshal(msg.Payload, &c))
		assert.Equal(t, msg.Topic, c.Type)
		out = append(out, c)
	}
	return out
}

// failingRepo fails every call with a storage error.
type failingRepo struct{ calls int }

var errStorage = errors.Join(domain.ErrStorageUnavailable, errors.New("connection refused"))

func (r *failingRepo) List(context.Context) ([]*domain.Topic, error) {
	r.calls++
	return nil, errStorage
}
func (r *failingRepo) Create(context.Context, *domain.TopicInput) (*domain.Topic, error) {
	r.calls++
	return nil, errStorage
}
func (r *failingRepo) FindByID(context.Context, int64) (*domain.Topic, error) {
	r.calls++
	return nil, errStorage
}
func (r *failingRepo) Update(context.Context, int64, *domain.TopicInput) (*domain.Topic, error) {
	r.calls++
	return nil, errStorage
}
func (r *failingRepo) DeleteByID(context.Context, int64) error {
	r.calls++
	return errStorage
}
func (r *failingRepo) Ping(context.Context) error  { return errStorage }
func (r *failingRepo) Close(context.Context) error { return nil }

func newTestService(t *testing.T) (Service, *recordingPublisher) {
	t.Helper()
	store, err := database.OpenBadger(t.TempDir(), database.DefaultTimeouts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	pub := &recordingPublisher{}
	svc := NewService(store, pub).(*serviceImpl)
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc, pub
}

func validInput() *domain.TopicInput {
	return &domain.TopicInput{Title: "Confounding", Content: "A common cause.", Tags: []string{"stats", "bias"}}
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc, pub := newTestService(t)

	topics, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, topics)

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	got, err := svc.Retrieve(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	updated, err := svc.Update(ctx, created.ID, &domain.TopicInput{Title: "Confounders", Content: "Edited.", Tags: []string{}})
	require.NoError(t, err)
	assert.Equal(t, &domain.Topic{ID: 1, Title: "Confounders", Content: "Edited.", Tags: []string{}}, updated)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Retrieve(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	changes := pub.changes(t)
	require.Len(t, changes, 3)
	assert.Equal(t, EventCreated, changes[0].Type)
	assert.Equal(t, created, changes[0].Topic)
	assert.Equal(t, EventUpdated, changes[1].Type)
	assert.Equal(t, "Confounders", changes[1].Topic.Title)
	assert.Equal(t, EventDeleted, changes[2].Type)
	assert.Nil(t, changes[2].Topic)
	for _, c := range changes {
		assert.Equal(t, int64(1), c.TopicID)
		assert.True(t, c.OccurredAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))
	}
}

func TestService_ListReturnsAllCreated(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, validInput())
		require.NoError(t, err)
	}
	topics, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, topics, 5)
	for i, topic := range topics {
		assert.Equal(t, int64(i+1), topic.ID)
		assert.Equal(t, []string{"stats", "bias"}, topic.Tags)
	}
}

func TestService_ValidationFailsBeforeStorage(t *testing.T) {
	ctx := context.Background()
	repo := &failingRepo{}
	svc := NewService(repo, nil)

	_, err := svc.Create(ctx, &domain.TopicInput{Title: "x", Content: "x"})
	assert.ErrorIs(t, err, domain.ErrMalformedRequest)
	assert.Contains(t, err.Error(), "tags is required")

	_, err = svc.Create(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrMalformedRequest)

	_, err = svc.Update(ctx, 999, &domain.TopicInput{Title: "x", Content: "y"})
	assert.ErrorIs(t, err, domain.ErrMalformedRequest, "malformed body wins over absent id")

	assert.Zero(t, repo.calls)
}

func TestService_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, pub := newTestService(t)

	_, err := svc.Retrieve(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Update(ctx, 7, validInput())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, 7), domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 0), domain.ErrNotFound)
	_, err = svc.Retrieve(ctx, -1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Empty(t, pub.changes(t), "failed operations publish nothing")
}

func TestService_StorageErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewService(&failingRepo{}, pub)

	_, err := svc.List(ctx)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	_, err = svc.Create(ctx, validInput())
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	_, err = svc.Retrieve(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	_, err = svc.Update(ctx, 1, validInput())
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.ErrorIs(t, svc.Delete(ctx, 1), domain.ErrStorageUnavailable)

	assert.Empty(t, pub.changes(t))
}

func TestService_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	svc, pub := newTestService(t)
	pub.err = errors.New("bus closed")

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
}

func TestService_EventsReachSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := database.OpenBadger(t.TempDir(), database.DefaultTimeouts)
	require.NoError(t, err)
	defer store.Close(ctx)

	bus := pubsub.NewWatermillBridge(nil)
	defer bus.Close()

	got := make(chan Change, 1)
	require.NoError(t, bus.Subscribe(ctx, EventCreated, func(ctx context.Context, msg pubsub.Message) error {
		c, err := pubsub.Decode(Created, msg)
		if err != nil {
			return err
		}
		got <- c
		return nil
	}))

	_, err = NewService(store, bus).Create(ctx, validInput())
	require.NoError(t, err)

	select {
	case c := <-got:
		assert.Equal(t, int64(1), c.TopicID)
		assert.Equal(t, "Confounding", c.Topic.Title)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}
