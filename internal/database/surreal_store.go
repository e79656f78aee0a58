package database

import (
	"context"
	"errors"

	"github.com/nfrund/causal/internal/config"
	"github.com/nfrund/causal/internal/domain"
	"github.com/surrealdb/surrealdb.go"
)

const surrealBackend = "surrealdb"

// Record ids are topic:<n>; topic_id duplicates <n> so rows decode without
// parsing record ids.
const (
	surrealTopicFields = "topic_id, title, content, tags"

	surrealNextIDQuery = "UPSERT topic_sequence:topic SET value += 1 RETURN AFTER"
	surrealCreateQuery = "CREATE type::thing('topic', $id) CONTENT $data"
	surrealListQuery   = "SELECT " + surrealTopicFields + " FROM topic ORDER BY topic_id ASC"
	surrealSelectQuery = "SELECT " + surrealTopicFields + " FROM type::thing('topic', $id)"
	surrealUpdateQuery = "UPDATE type::thing('topic', $id) SET title = $title, content = $content, tags = $tags RETURN AFTER"
	surrealDeleteQuery = "DELETE type::thing('topic', $id) RETURN BEFORE"
)

type surrealTopic struct {
	TopicID int64    `json:"topic_id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

func (r surrealTopic) topic() *domain.Topic {
	return &domain.Topic{ID: r.TopicID, Title: r.Title, Content: r.Content, Tags: normalizeTags(r.Tags)}
}

var errEmptySequence = errors.New("topic sequence returned no value")

type surrealSequence struct {
	Value int64 `json:"value"`
}

// SurrealStore keeps Topics in SurrealDB through a managed Connection.
type SurrealStore struct {
	conn     *Connection
	timeouts Timeouts
}

// OpenSurreal connects, signs in and starts health monitoring.
func OpenSurreal(ctx context.Context, cfg config.Provider, timeouts Timeouts) (*SurrealStore, error) {
	conn := NewConnection(cfg)
	if err := conn.Connect(ctx); err != nil {
		return nil, NewDBError(surrealBackend, "connect", err)
	}
	conn.StartMonitoring()
	return NewSurrealStore(conn, timeouts), nil
}

// NewSurrealStore wraps an already connected Connection.
func NewSurrealStore(conn *Connection, timeouts Timeouts) *SurrealStore {
	return &SurrealStore{conn: conn, timeouts: timeouts}
}

// List implements domain.TopicRepository.
func (s *SurrealStore) List(ctx context.Context) ([]*domain.Topic, error) {
	ctx, cancel := s.timeouts.query(ctx)
	defer cancel()

	var rows []surrealTopic
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		rows, err = Query[surrealTopic](ctx, db, surrealListQuery, nil)
		return err
	})
	if err != nil {
		return nil, storageError(surrealBackend, "list topics", err)
	}

	topics := make([]*domain.Topic, 0, len(rows))
	for _, row := range rows {
		topics = append(topics, row.topic())
	}
	return topics, nil
}

// Create implements domain.TopicRepository.
func (s *SurrealStore) Create(ctx context.Context, in *domain.TopicInput) (*domain.Topic, error) {
	ctx, cancel := s.timeouts.execute(ctx)
	defer cancel()

	var topic *domain.Topic
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		seq, err := Query[surrealSequence](ctx, db, surrealNextIDQuery, nil)
		if err != nil {
			return err
		}
		if len(seq) == 0 || seq[0].Value < 1 {
			return errEmptySequence
		}

		topic = in.Topic(seq[0].Value)
		return Execute(ctx, db, surrealCreateQuery, map[string]any{
			"id": topic.ID,
			"data": map[string]any{
				"topic_id": topic.ID,
				"title":    topic.Title,
				"content":  topic.Content,
				"tags":     topic.Tags,
			},
		})
	})
	if err != nil {
		return nil, storageError(surrealBackend, "create topic", err)
	}
	return topic, nil
}

// FindByID implements domain.TopicRepository.
func (s *SurrealStore) FindByID(ctx context.Context, id int64) (*domain.Topic, error) {
	ctx, cancel := s.timeouts.query(ctx)
	defer cancel()

	var rows []surrealTopic
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		rows, err = Query[surrealTopic](ctx, db, surrealSelectQuery, map[string]any{"id": id})
		return err
	})
	if err != nil {
		return nil, storageError(surrealBackend, "find topic", err)
	}
	if len(rows) == 0 {
		return nil, &domain.NotFoundError{ID: id}
	}
	return rows[0].topic(), nil
}

// Update implements domain.TopicRepository. UPDATE never creates a record, so
// an empty result means the id is absent.
func (s *SurrealStore) Update(ctx context.Context, id int64, in *domain.TopicInput) (*domain.Topic, error) {
	ctx, cancel := s.timeouts.execute(ctx)
	defer cancel()

	topic := in.Topic(id)
	var rows []surrealTopic
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		rows, err = Query[surrealTopic](ctx, db, surrealUpdateQuery, map[string]any{
			"id":      id,
			"title":   topic.Title,
			"content": topic.Content,
			"tags":    topic.Tags,
		})
		return err
	})
	if err != nil {
		return nil, storageError(surrealBackend, "update topic", err)
	}
	if len(rows) == 0 {
		return nil, &domain.NotFoundError{ID: id}
	}
	return rows[0].topic(), nil
}

// DeleteByID implements domain.TopicRepository.
func (s *SurrealStore) DeleteByID(ctx context.Context, id int64) error {
	ctx, cancel := s.timeouts.execute(ctx)
	defer cancel()

	var rows []surrealTopic
	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		var err error
		rows, err = Query[surrealTopic](ctx, db, surrealDeleteQuery, map[string]any{"id": id})
		return err
	})
	if err != nil {
		return storageError(surrealBackend, "delete topic", err)
	}
	if len(rows) == 0 {
		return &domain.NotFoundError{ID: id}
	}
	return nil
}

// Ping implements domain.TopicRepository.
func (s *SurrealStore) Ping(ctx context.Context) error {
	ctx, cancel := s.timeouts.query(ctx)
	defer cancel()

	err := s.conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		_, err := db.Version(ctx)
		return err
	})
	return storageError(surrealBackend, "ping", err)
}

// Close stops monitoring and closes the connection.
func (s *SurrealStore) Close(ctx context.Context) error {
	return storageError(surrealBackend, "close", s.conn.Close(ctx))
}
