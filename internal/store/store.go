package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/elonfeng/reciperadar/pkg/recipe"
	"github.com/elonfeng/reciperadar/pkg/source"
)

// Capture is the stored analysis of one collected post.
type Capture struct {
	ID              string            `db:"id" json:"id"`
	Source          source.SourceType `db:"source" json:"source"`
	ExternalID      string            `db:"external_id" json:"external_id"`
	URL             string            `db:"url" json:"url"`
	Author          string            `db:"author" json:"author"`
	Title           string            `db:"title" json:"title"`
	MainText        string            `db:"main_text" json:"main_text"`
	Score           recipe.Score      `db:"score" json:"score"`
	Comments        []string          `db:"-" json:"comments"`
	TopComments     []string          `db:"-" json:"top_comments"`
	Detected        bool              `db:"detected" json:"detected"`
	Notified        bool              `db:"notified" json:"notified"`
	PublishedAt     time.Time         `db:"published_at" json:"published_at"`
	CapturedAt      time.Time         `db:"captured_at" json:"captured_at"`
	CommentsJSON    string            `db:"comments" json:"-"`
	TopCommentsJSON string            `db:"top_comments" json:"-"`
}

// ListOpts controls capture listing.
type ListOpts struct {
	Source     source.SourceType
	MinScore   recipe.Score
	Detected   bool
	Unnotified bool
	Since      time.Time
	Limit      int
}

// Store is the persistence interface.
type Store interface {
	UpsertCapture(ctx context.Context, c *Capture) error
	GetCapture(ctx context.Context, id string) (*Capture, error)
	ListCaptures(ctx context.Context, opts ListOpts) ([]Capture, error)
	CountBySource(ctx context.Context) (map[source.SourceType]int, error)
	MarkNotified(ctx context.Context, id string) error

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertCapture stores c. A re-captured post keeps its notified flag so that
// the same recipe is not announced twice.
func (s *SQLiteStore) UpsertCapture(ctx context.Context, c *Capture) error {
	commentsJSON, err := json.Marshal(nonNil(c.Comments))
	if err != nil {
		return fmt.Errorf("marshal comments %s: %w", c.ID, err)
	}
	topJSON, err := json.Marshal(nonNil(c.TopComments))
	if err != nil {
		return fmt.Errorf("marshal top comments %s: %w", c.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO captures (id, source, external_id, url, author, title, main_text, score, comments, top_comments, detected, notified, published_at, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			main_text = excluded.main_text,
			score = excluded.score,
			comments = excluded.comments,
			top_comments = excluded.top_comments,
			detected = excluded.detected,
			captured_at = excluded.captured_at
	`, c.ID, c.Source, c.ExternalID, c.URL, c.Author, c.Title, c.MainText,
		float64(c.Score), string(commentsJSON), string(topJSON),
		c.Detected, c.Notified, c.PublishedAt.UTC(), c.CapturedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert capture %s: %w", c.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetCapture(ctx context.Context, id string) (*Capture, error) {
	var c Capture
	if err := s.db.GetContext(ctx, &c, "SELECT * FROM captures WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("get capture %s: %w", id, err)
	}
	decodeLists(&c)
	return &c, nil
}

func (s *SQLiteStore) ListCaptures(ctx context.Context, opts ListOpts) ([]Capture, error) {
	query := "SELECT * FROM captures WHERE 1=1"
	var args []any

	if opts.Source != "" {
		query += " AND source = ?"
		args = append(args, opts.Source)
	}
	if opts.MinScore != 0 {
		query += " AND score >= ?"
		args = append(args, float64(opts.MinScore))
	}
	if opts.Detected {
		query += " AND detected = 1"
	}
	if opts.Unnotified {
		query += " AND notified = 0"
	}
	if !opts.Since.IsZero() {
		query += " AND captured_at >= ?"
		args = append(args, opts.Since.UTC())
	}

	query += " ORDER BY score DESC, captured_at DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var captures []Capture
	if err := s.db.SelectContext(ctx, &captures, query, args...); err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}

	for i := range captures {
		decodeLists(&captures[i])
	}
	return captures, nil
}

func (s *SQLiteStore) CountBySource(ctx context.Context) (map[source.SourceType]int, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT source, COUNT(*) AS cnt FROM captures GROUP BY source")
	if err != nil {
		return nil, fmt.Errorf("count captures by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[source.SourceType]int)
	for rows.Next() {
		var src string
		var cnt int
		if err := rows.Scan(&src, &cnt); err != nil {
			return nil, err
		}
		counts[source.SourceType(src)] = cnt
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) MarkNotified(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE captures SET notified = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark notified %s: %w", id, err)
	}
	return nil
}

func decodeLists(c *Capture) {
	if err := json.Unmarshal([]byte(c.CommentsJSON), &c.Comments); err != nil {
		log.Debug().Err(err).Str("capture", c.ID).Msg("decode stored comments")
	}
	if err := json.Unmarshal([]byte(c.TopCommentsJSON), &c.TopComments); err != nil {
		log.Debug().Err(err).Str("capture", c.ID).Msg("decode stored top comments")
	}
	c.Comments = nonNil(c.Comments)
	c.TopComments = nonNil(c.TopComments)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
