package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nfrund/causal/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const gormBackend = "gorm"

// topicRecord is the relational row. Tags live in a JSON column so labels
// containing commas survive.
type topicRecord struct {
	ID      int64          `gorm:"primaryKey;autoIncrement"`
	Title   string         `gorm:"size:100;not null"`
	Content string         `gorm:"type:text;not null"`
	Tags    datatypes.JSON `gorm:"not null"`
}

func (topicRecord) TableName() string { return "topics" }

func newTopicRecord(id int64, in *domain.TopicInput) (*topicRecord, error) {
	tags, err := json.Marshal(normalizeTags(in.Tags))
	if err != nil {
		return nil, err
	}
	return &topicRecord{ID: id, Title: in.Title, Content: in.Content, Tags: datatypes.JSON(tags)}, nil
}

func (r *topicRecord) topic() (*domain.Topic, error) {
	var tags []string
	if len(r.Tags) > 0 {
		if err := json.Unmarshal(r.Tags, &tags); err != nil {
			return nil, fmt.Errorf("decode tags of topic %d: %w", r.ID, err)
		}
	}
	return &domain.Topic{ID: r.ID, Title: r.Title, Content: r.Content, Tags: normalizeTags(tags)}, nil
}

// GormStore keeps Topics in a relational database through gorm.
type GormStore struct {
	db       *gorm.DB
	dialect  string
	timeouts Timeouts
}

// OpenPostgres connects to PostgreSQL with a libpq style URL or DSN.
func OpenPostgres(ctx context.Context, dsn string, timeouts Timeouts) (*GormStore, error) {
	return openGorm(ctx, "postgres", postgres.Open(dsn), timeouts)
}

// OpenMySQL connects to MySQL with a go-sql-driver DSN (user:pass@tcp(host:3306)/db).
func OpenMySQL(ctx context.Context, dsn string, timeouts Timeouts) (*GormStore, error) {
	return openGorm(ctx, "mysql", mysql.Open(dsn), timeouts)
}

func openGorm(ctx context.Context, dialect string, dialector gorm.Dialector, timeouts Timeouts) (*GormStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(slogWriter{logger: slog.Default().With("component", "gorm")}, gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, NewDBError(gormBackend, "connect to "+dialect, err)
	}

	store := &GormStore{db: db, dialect: dialect, timeouts: timeouts}

	migrateCtx, cancel := timeouts.execute(ctx)
	defer cancel()
	if err := db.WithContext(migrateCtx).AutoMigrate(&topicRecord{}); err != nil {
		_ = store.Close(ctx)
		return nil, NewDBError(gormBackend, "migrate topics table", err)
	}

	slog.Info("Connected to relational topic store", "backend", gormBackend, "dialect", dialect)
	return store, nil
}

func (s *GormStore) backend() string {
	return gormBackend + "/" + s.dialect
}

// List implements domain.TopicRepository.
func (s *GormStore) List(ctx context.Context) ([]*domain.Topic, error) {
	ctx, cancel := s.timeouts.query(ctx)
	defer cancel()

	var records []topicRecord
	if err := s.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, storageError(s.backend(), "list topics", err)
	}

	topics := make([]*domain.Topic, 0, len(records))
	for i := range records {
		topic, err := records[i].topic()
		if err != nil {
			return nil, storageError(s.backend(), "list topics", err)
		}
		topics = append(topics, topic)
	}
	return topics, nil
}

// Create implements domain.TopicRepository.
func (s *GormStore) Create(ctx context.Context, in *domain.TopicInput) (*domain.Topic, error) {
	ctx, cancel := s.timeouts.execute(ctx)
	defer cancel()

	record, err := newTopicRecord(0, in)
	if err != nil {
		return nil, storageError(s.backend(), "encode topic", err)
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, storageError(s.backend(), "create topic", err)
	}
	topic, err := record.topic()
	return topic, storageError(s.backend(), "create topic", err)
}

// FindByID implements domain.TopicRepository.
func (s *GormStore) FindByID(ctx context.Context, id int64) (*domain.Topic, error) {
	ctx, cancel := s.timeouts.query(ctx)
	defer cancel()

	var record topicRecord
	if err := s.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, s.classify(id, "find topic", err)
	}
	topic, err := record.topic()
	return topic, storageError(s.backend(), "find topic", err)
}

// Update implements domain.TopicRepository.
func (s *GormStore) Update(ctx context.Context, id int64, in *domain.TopicInput) (*domain.Topic, error) {
	ctx, cancel := s.timeouts.execute(ctx)
	defer cancel()

	record, err := newTopicRecord(id, in)
	if err != nil {
		return nil, storageError(s.backend(), "encode topic", err)
	}

	res := s.db.WithContext(ctx).Model(&topicRecord{}).Where("id = ?", id).Updates(map[string]any{
		"title":   record.Title,
		"content": record.Content,
		"tags":    record.Tags,
	})
	if res.Error != nil {
		return nil, storageError(s.backend(), "update topic", res.Error)
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero affected rows when the values are unchanged.
		if _, err := s.FindByID(ctx, id); err != nil {
			return nil, err
		}
	}
	topic, err := record.topic()
	return topic, storageError(s.backend(), "update topic", err)
}

// DeleteByID implements domain.TopicRepository.
func (s *GormStore) DeleteByID(ctx context.Context, id int64) error {
	ctx, cancel := s.timeouts.execute(ctx)
	defer cancel()

	res := s.db.WithContext(ctx).Delete(&topicRecord{}, id)
	if res.Error != nil {
		return storageError(s.backend(), "delete topic", res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{ID: id}
	}
	return nil
}

// Ping implements domain.TopicRepository.
func (s *GormStore) Ping(ctx context.Context) error {
	ctx, cancel := s.timeouts.query(ctx)
	defer cancel()

	sqlDB, err := s.db.DB()
	if err != nil {
		return storageError(s.backend(), "ping", err)
	}
	return storageError(s.backend(), "ping", sqlDB.PingContext(ctx))
}

// Close closes the underlying connection pool.
func (s *GormStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return storageError(s.backend(), "close", err)
	}
	return storageError(s.backend(), "close", sqlDB.Close())
}

func (s *GormStore) classify(id int64, op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.NotFoundError{ID: id}
	}
	return storageError(s.backend(), op, err)
}

// slogWriter adapts slog to gorm's printf-style logger writer.
type slogWriter struct {
	logger *slog.Logger
}

func (w slogWriter) Printf(format string, args ...interface{}) {
	w.logger.Warn(fmt.Sprintf(format, args...))
}
