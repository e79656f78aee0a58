// Package backup writes and reads portable JSON snapshots of every Topic.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nfrund/causal/internal/database"
	"github.com/nfrund/causal/internal/domain"
	"github.com/nfrund/causal/internal/storage"
)

// FormatVersion is written into every document and checked on import.
const FormatVersion = 1

// ErrUnsupportedVersion is returned for documents written by a newer format.
var ErrUnsupportedVersion = errors.New("unsupported backup version")

// Document is the on-disk layout of an export.
type Document struct {
	Version    int             `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	Topics     []*domain.Topic `json:"topics"`
}

// Record is one imported topic. Title and content must be present but may be
// empty. Tags may be an array, a legacy comma-joined string or null.
type Record struct {
	ID      int64   `json:"id,omitempty"`
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Tags    Tags    `json:"tags"`
}

// Tags accepts every encoding on decode. Present reports whether the field
// appeared in the record at all.
type Tags struct {
	Values  []string
	Present bool
	Legacy  bool
}

// UnmarshalJSON implements json.Unmarshaler. null is what the legacy nullable
// column exported for a topic without tags.
func (t *Tags) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Tags{Values: []string{}, Present: true, Legacy: true}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = Tags{Values: list, Present: true}
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return fmt.Errorf("tags must be an array of strings or a comma-joined string")
	}
	*t = Tags{Values: database.SplitTags(joined), Present: true, Legacy: true}
	return nil
}

// Input converts the record into a validated create request.
func (r Record) Input() (*domain.TopicInput, error) {
	var missing []string
	if r.Title == nil {
		missing = append(missing, "title is required")
	}
	if r.Content == nil {
		missing = append(missing, "content is required")
	}
	if !r.Tags.Present {
		missing = append(missing, "tags is required")
	}
	if len(missing) > 0 {
		return nil, domain.NewMalformedRequest("%s", strings.Join(missing, "; "))
	}

	in := &domain.TopicInput{Title: *r.Title, Content: *r.Content, Tags: r.Tags.Values}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return in, nil
}

func (r Record) title() string {
	if r.Title == nil {
		return ""
	}
	return *r.Title
}

// Skipped describes a record that could not be imported.
type Skipped struct {
	Index  int    `json:"index"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// Result summarizes an import.
type Result struct {
	Created []*domain.Topic `json:"created"`
	Skipped []Skipped       `json:"skipped"`
	// Legacy counts records whose tags were comma-joined strings or null.
	Legacy int `json:"legacy"`
}

// Service exports and imports topics through a file store.
type Service struct {
	repo  domain.TopicRepository
	files storage.Store
	now   func() time.Time
}

// NewService creates a backup service.
func NewService(repo domain.TopicRepository, files storage.Store) *Service {
	return &Service{repo: repo, files: files, now: time.Now}
}

// Export writes every topic to path and returns how many were written.
func (s *Service) Export(ctx context.Context, path string) (int, error) {
	topics, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	if topics == nil {
		topics = []*domain.Topic{}
	}

	doc := Document{Version: FormatVersion, ExportedAt: s.now().UTC(), Topics: topics}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode backup: %w", err)
	}

	if _, err := s.files.Save(ctx, path, bytes.NewReader(append(data, '\n'))); err != nil {
		return 0, fmt.Errorf("save backup: %w", err)
	}
	slog.InfoContext(ctx, "Exported topics", "path", path, "count", len(topics))
	return len(topics), nil
}

// Import creates a new topic for every valid record in path. Ids in the file
// are ignored. Invalid records are skipped and reported; storage errors abort.
func (s *Service) Import(ctx context.Context, path string) (*Result, error) {
	records, err := s.read(ctx, path)
	if err != nil {
		return nil, err
	}

	res := &Result{Created: []*domain.Topic{}, Skipped: []Skipped{}}
	for i, rec := range records {
		in, err := rec.Input()
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{Index: i, Title: rec.title(), Reason: err.Error()})
			continue
		}
		created, err := s.repo.Create(ctx, in)
		if err != nil {
			return res, fmt.Errorf("import record %d: %w", i, err)
		}
		if rec.Tags.Legacy {
			res.Legacy++
		}
		res.Created = append(res.Created, created)
	}

	slog.InfoContext(ctx, "Imported topics", "path", path,
		"created", len(res.Created), "skipped", len(res.Skipped), "legacy_tags", res.Legacy)
	return res, nil
}

// read accepts a Document or a bare array of records.
func (s *Service) read(ctx context.Context, path string) ([]Record, error) {
	rc, err := s.files.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open backup: %w", err)
	}
	defer rc.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(rc).Decode(&raw); err != nil {
		return nil, domain.NewMalformedRequest("backup is not valid JSON: %v", err)
	}

	var records []Record
	if err := json.Unmarshal(raw, &records); err == nil {
		return records, nil
	}

	var doc struct {
		Version int      `json:"version"`
		Topics  []Record `json:"topics"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, domain.NewMalformedRequest("backup has an unexpected layout: %v", err)
	}
	if doc.Version > FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	return doc.Topics, nil
}
