package database

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/dgraph-io/badger"
	"github.com/nfrund/causal/internal/domain"
)

const (
	badgerBackend = "badger"

	// sequenceBandwidth is how many ids the sequence leases per disk write.
	// Unused leased ids are skipped after a restart.
	sequenceBandwidth = 100
)

var (
	topicKeyPrefix = []byte("topic/")
	topicSeqKey    = []byte("seq/topic")
)

// BadgerStore keeps Topics in an embedded badger key-value store.
// Keys are the prefix followed by the big-endian id, so iteration is in id order.
type BadgerStore struct {
	db        *badger.DB
	seq       *badger.Sequence
	timeouts  Timeouts
	conflicts *Backoff
	closed    atomic.Bool
}

// OpenBadger opens (creating if needed) a badger store rooted at dir.
func OpenBadger(dir string, timeouts Timeouts) (*BadgerStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, NewDBError(badgerBackend, "create data directory", err)
	}

	opts := badger.DefaultOptions(dir).
		WithSyncWrites(true).
		WithLogger(badgerLogger{logger: slog.Default().With("component", "badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, NewDBError(badgerBackend, "open", err)
	}

	seq, err := db.GetSequence(topicSeqKey, sequenceBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, NewDBError(badgerBackend, "open id sequence", err)
	}

	conflicts := conflictBackoff(func(err error) bool {
		return errors.Is(err, badger.ErrConflict)
	})

	slog.Info("Opened embedded topic store", "backend", badgerBackend, "dir", dir)
	return &BadgerStore{db: db, seq: seq, timeouts: timeouts, conflicts: conflicts}, nil
}

func topicKey(id int64) []byte {
	key := make([]byte, len(topicKeyPrefix)+8)
	copy(key, topicKeyPrefix)
	binary.BigEndian.PutUint64(key[len(topicKeyPrefix):], uint64(id))
	return key
}

func (s *BadgerStore) ready(ctx context.Context) error {
	if s.closed.Load() {
		return NewDBError(badgerBackend, "use store", ErrNotConnected)
	}
	return ctx.Err()
}

// List implements domain.TopicRepository.
func (s *BadgerStore) List(ctx context.Context) ([]*domain.Topic, error) {
	ctx, cancel := s.timeouts.query(ctx)
	defer cancel()
	if err := s.ready(ctx); err != nil {
		return nil, storageError(badgerBackend, "list topics", err)
	}

	topics := []*domain.Topic{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(topicKeyPrefix); it.ValidForPrefix(topicKeyPrefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			topic, err := decodeTopic(raw)
			if err != nil {
				return err
			}
			topics = append(topics, topic)
		}
		return nil
	})
	if err != nil {
		return nil, storageError(badgerBackend, "list topics", err)
	}
	return topics, nil
}

// Create implements domain.TopicRepository.
func (s *BadgerStore) Create(ctx context.Context, in *domain.TopicInput) (*domain.Topic, error) {
	ctx, cancel := s.timeouts.execute(ctx)
	defer cancel()
	if err := s.ready(ctx); err != nil {
		return nil, storageError(badgerBackend, "create topic", err)
	}

	id, err := s.nextID()
	if err != nil {
		return nil, storageError(badgerBackend, "allocate topic id", err)
	}

	topic := in.Topic(id)
	raw, err := json.Marshal(topic)
	if err != nil {
		return nil, storageError(badgerBackend, "encode topic", err)
	}

	err = s.conflicts.Do(ctx, func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			return txn.Set(topicKey(id), raw)
		})
	})
	if err != nil {
		return nil, storageError(badgerBackend, "create topic", err)
	}
	return topic, nil
}

// nextID returns the next sequence value, skipping 0 so ids start at 1.
func (s *BadgerStore) nextID() (int64, error) {
	for {
		n, err := s.seq.Next()
		if err != nil {
			return 0, err
		}
		if n > 0 {
			return int64(n), nil
		}
	}
}

// FindByID implements domain.TopicRepository.
func (s *BadgerStore) FindByID(ctx context.Context, id int64) (*domain.Topic, error) {
	ctx, cancel := s.timeouts.query(ctx)
	defer cancel()
	if err := s.ready(ctx); err != nil {
		return nil, storageError(badgerBackend, "find topic", err)
	}

	var topic *domain.Topic
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		topic, err = getTopic(txn, id)
		return err
	})
	if err != nil {
		return nil, storageError(badgerBackend, "find topic", err)
	}
	return topic, nil
}

// Update implements domain.TopicRepository. Concurrent updates of the same id
// conflict inside badger and are retried, so the last committed write wins.
func (s *BadgerStore) Update(ctx context.Context, id int64, in *domain.TopicInput) (*domain.Topic, error) {
	ctx, cancel := s.timeouts.execute(ctx)
	defer cancel()
	if err := s.ready(ctx); err != nil {
		return nil, storageError(badgerBackend, "update topic", err)
	}

	topic := in.Topic(id)
	raw, err := json.Marshal(topic)
	if err != nil {
		return nil, storageError(badgerBackend, "encode topic", err)
	}

	err = s.conflicts.Do(ctx, func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			if _, err := getTopic(txn, id); err != nil {
				return err
			}
			return txn.Set(topicKey(id), raw)
		})
	})
	if err != nil {
		return nil, storageError(badgerBackend, "update topic", err)
	}
	return topic, nil
}

// DeleteByID implements domain.TopicRepository.
func (s *BadgerStore) DeleteByID(ctx context.Context, id int64) error {
	ctx, cancel := s.timeouts.execute(ctx)
	defer cancel()
	if err := s.ready(ctx); err != nil {
		return storageError(badgerBackend, "delete topic", err)
	}

	err := s.conflicts.Do(ctx, func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			if _, err := txn.Get(topicKey(id)); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return &domain.NotFoundError{ID: id}
				}
				return err
			}
			return txn.Delete(topicKey(id))
		})
	})
	return storageError(badgerBackend, "delete topic", err)
}

// Ping implements domain.TopicRepository.
func (s *BadgerStore) Ping(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return storageError(badgerBackend, "ping", err)
	}
	return storageError(badgerBackend, "ping", s.db.View(func(txn *badger.Txn) error { return nil }))
}

// Close releases the id sequence and closes the database. It is safe to call twice.
func (s *BadgerStore) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	var errs []error
	if err := s.seq.Release(); err != nil {
		errs = append(errs, fmt.Errorf("release sequence: %w", err))
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return NewDBError(badgerBackend, "close", err)
	}
	return nil
}

func getTopic(txn *badger.Txn, id int64) (*domain.Topic, error) {
	item, err := txn.Get(topicKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, &domain.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return decodeTopic(raw)
}

func decodeTopic(raw []byte) (*domain.Topic, error) {
	var topic domain.Topic
	if err := json.Unmarshal(raw, &topic); err != nil {
		return nil, fmt.Errorf("decode topic: %w", err)
	}
	topic.Tags = normalizeTags(topic.Tags)
	return &topic, nil
}

// badgerLogger routes badger's printf-style logging into slog.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
