package postapi

import (
	"crypto/rand"
	"database/sql"
	"encoding/base32"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/eringen/postapi/markdown"
)

// Store wraps a SQLite database and provides the post persistence and query
// operations used by the public, admin and webhook handlers. It holds no
// locks of its own; concurrent access is serialized by SQLite.
type Store struct {
	db *sql.DB

	clock         func() time.Time
	newID         func() string
	render        func(string) string
	defaultAuthor string
}

// StoreOption configures a Store at construction time.
type StoreOption func(*Store)

// WithClock replaces the timestamp source. Tests use this to pin createdAt,
// updatedAt and the publishedAt default.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) { s.clock = clock }
}

// WithIDGenerator replaces the post id generator.
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *Store) { s.newID = newID }
}

// WithDefaultAuthor sets the author recorded when the input omits one.
func WithDefaultAuthor(name string) StoreOption {
	return func(s *Store) { s.defaultAuthor = name }
}

// WithHTMLRenderer replaces the markdown-to-HTML renderer.
func WithHTMLRenderer(render func(string) string) StoreOption {
	return func(s *Store) { s.render = render }
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string, opts ...StoreOption) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Enable WAL mode for concurrent read/write access, set a busy timeout
	// so writers wait instead of returning SQLITE_BUSY immediately, and tune
	// performance: synchronous=NORMAL is safe with WAL and avoids an fsync
	// per transaction; larger cache and mmap reduce disk I/O.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA mmap_size=268435456;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{
		db: db,
		// RFC 3339 column values carry second precision, so hand out
		// second-precision timestamps to keep reads equal to writes.
		clock: func() time.Time {
			return time.Now().UTC().Truncate(time.Second)
		},
		newID:         newPostID,
		render:        markdown.Render,
		defaultAuthor: "Blog",
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    summary TEXT NOT NULL DEFAULT '',
    content_markdown TEXT NOT NULL DEFAULT '',
    content_html TEXT NOT NULL DEFAULT '',
    image_url TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '[]',
    source_url TEXT NOT NULL DEFAULT '',
    author TEXT NOT NULL DEFAULT '',
    published_at TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'published',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS images (
    filename TEXT PRIMARY KEY,
    original_name TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    uploaded_at TEXT NOT NULL
);
`)
	return err
}

const postColumns = `id, title, slug, summary, content_markdown, content_html,
	image_url, tags, source_url, author, published_at, status, created_at, updated_at`

// Create stores a new post. It fails with *ValidationError on bad input and
// *ConflictError when the resulting slug already exists.
func (s *Store) Create(in PostInput) (Post, error) {
	post, err := s.buildPost(in)
	if err != nil {
		return Post{}, err
	}
	_, err = s.db.Exec(`INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.Title, post.Slug, post.Summary, post.ContentMarkdown, post.ContentHTML,
		post.ImageURL, encodeTags(post.Tags), post.SourceURL, post.Author,
		encodeTime(post.PublishedAt), string(post.Status), encodeTime(post.CreatedAt), encodeTime(post.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return Post{}, &ConflictError{Slug: post.Slug}
		}
		return Post{}, err
	}
	return post, nil
}

// UpsertBySlug creates the post, or fully replaces the mutable fields of the
// existing post with the same slug. The id and createdAt of an existing row
// are preserved. The existence check and write are a single statement, so
// concurrent upserts for one slug cannot produce duplicate rows.
func (s *Store) UpsertBySlug(in PostInput) (Post, error) {
	post, err := s.buildPost(in)
	if err != nil {
		return Post{}, err
	}
	_, err = s.db.Exec(`INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title = excluded.title,
			summary = excluded.summary,
			content_markdown = excluded.content_markdown,
			content_html = excluded.content_html,
			image_url = excluded.image_url,
			tags = excluded.tags,
			source_url = excluded.source_url,
			author = excluded.author,
			published_at = excluded.published_at,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		post.ID, post.Title, post.Slug, post.Summary, post.ContentMarkdown, post.ContentHTML,
		post.ImageURL, encodeTags(post.Tags), post.SourceURL, post.Author,
		encodeTime(post.PublishedAt), string(post.Status), encodeTime(post.CreatedAt), encodeTime(post.UpdatedAt))
	if err != nil {
		return Post{}, err
	}
	return s.GetBySlug(post.Slug)
}

// Update applies the non-nil fields of patch to the post with the given id.
// HTML is re-rendered from markdown only when the patch supplies markdown
// without explicit HTML.
func (s *Store) Update(id string, patch PostPatch) (Post, error) {
	if patch.Status != nil {
		normalized := strings.ToLower(strings.TrimSpace(*patch.Status))
		patch.Status = &normalized
	}
	if err := checkInput(patch); err != nil {
		return Post{}, err
	}
	post, err := s.GetByID(id)
	if err != nil {
		return Post{}, err
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return Post{}, validationErrorf("title", "must not be empty")
		}
		post.Title = title
	}
	if patch.Slug != nil {
		slug := strings.TrimSpace(*patch.Slug)
		if slug == "" {
			return Post{}, validationErrorf("slug", "must not be empty")
		}
		post.Slug = slug
	}
	if patch.Summary != nil {
		post.Summary = *patch.Summary
	}
	if patch.ContentMarkdown != nil {
		post.ContentMarkdown = *patch.ContentMarkdown
		if patch.ContentHTML == nil {
			post.ContentHTML = s.render(*patch.ContentMarkdown)
		}
	}
	if patch.ContentHTML != nil {
		post.ContentHTML = *patch.ContentHTML
	}
	if patch.ImageURL != nil {
		post.ImageURL = *patch.ImageURL
	}
	if patch.Tags != nil {
		post.Tags = *patch.Tags
	}
	if patch.SourceURL != nil {
		post.SourceURL = *patch.SourceURL
	}
	if patch.Author != nil {
		post.Author = *patch.Author
	}
	if patch.PublishedAt != nil {
		post.PublishedAt = patch.PublishedAt.UTC()
	}
	if patch.Status != nil {
		post.Status = Status(*patch.Status)
	}
	post.UpdatedAt = s.clock()

	res, err := s.db.Exec(`UPDATE posts SET
			title = ?, slug = ?, summary = ?, content_markdown = ?, content_html = ?,
			image_url = ?, tags = ?, source_url = ?, author = ?, published_at = ?,
			status = ?, updated_at = ?
		WHERE id = ?`,
		post.Title, post.Slug, post.Summary, post.ContentMarkdown, post.ContentHTML,
		post.ImageURL, encodeTags(post.Tags), post.SourceURL, post.Author,
		encodeTime(post.PublishedAt), string(post.Status), encodeTime(post.UpdatedAt), id)
	if err != nil {
		if isUniqueViolation(err) {
			return Post{}, &ConflictError{Slug: post.Slug}
		}
		return Post{}, err
	}
	// The row can disappear between the read above and this write.
	n, err := res.RowsAffected()
	if err != nil {
		return Post{}, err
	}
	if n == 0 {
		return Post{}, &NotFoundError{Key: id}
	}
	return post, nil
}

// Delete permanently removes the post with the given id.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &NotFoundError{Key: id}
	}
	return nil
}

// GetByID returns the post with the given id regardless of status.
func (s *Store) GetByID(id string) (Post, error) {
	return s.getOne(`SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
}

// GetBySlug returns the post with the given slug regardless of status.
// Callers decide visibility.
func (s *Store) GetBySlug(slug string) (Post, error) {
	return s.getOne(`SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug)
}

func (s *Store) getOne(query, key string) (Post, error) {
	row := s.db.QueryRow(query, key)
	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Post{}, &NotFoundError{Key: key}
		}
		return Post{}, err
	}
	return post, nil
}

// List returns one page of posts matching the filter, plus the total count
// of matching rows independent of the pagination window.
func (s *Store) List(filter ListFilter) (ListResult, error) {
	orderCol, ok := orderColumns[filter.OrderBy]
	if !ok {
		return ListResult{}, validationErrorf("orderBy", "must be one of: publishedAt, updatedAt, title")
	}
	dir, ok := orderDirections[filter.Order]
	if !ok {
		return ListResult{}, validationErrorf("order", "must be asc or desc")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return ListResult{}, validationErrorf("status", "must be one of: draft, published")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := ClampLimit(filter.Limit, 10)
	offset := (page - 1) * limit

	where := ""
	var args []any
	if filter.Status != "" {
		where = ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM posts`+where, args...).Scan(&total); err != nil {
		return ListResult{}, err
	}

	// Secondary order on id keeps pages stable when the sort key ties.
	query := `SELECT ` + postColumns + ` FROM posts` + where +
		` ORDER BY ` + orderCol + ` ` + dir + `, id ` + dir + ` LIMIT ? OFFSET ?`
	rows, err := s.db.Query(query, append(args, limit, offset)...)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()

	items := []Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return ListResult{}, err
		}
		items = append(items, post)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, err
	}

	return ListResult{
		Items:   items,
		Page:    page,
		Total:   total,
		HasMore: offset+limit < total,
	}, nil
}

var orderColumns = map[string]string{
	"":            "published_at",
	"publishedAt": "published_at",
	"updatedAt":   "updated_at",
	"title":       "title",
}

var orderDirections = map[string]string{
	"":     "DESC",
	"asc":  "ASC",
	"desc": "DESC",
}

// buildPost validates the input and assembles a full Post with id, slug,
// rendered HTML, defaults and timestamps filled in.
func (s *Store) buildPost(in PostInput) (Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if err := checkInput(in); err != nil {
		return Post{}, err
	}

	slug := in.Slug
	if slug == "" {
		slug = Slugify(in.Title)
	}
	if slug == "" {
		return Post{}, validationErrorf("slug", "cannot be derived from title %q", in.Title)
	}

	html := in.ContentHTML
	if html == "" {
		html = s.render(in.ContentMarkdown)
	}

	status := StatusPublished
	if in.Status != "" {
		status = Status(in.Status)
	}

	author := in.Author
	if author == "" {
		author = s.defaultAuthor
	}

	now := s.clock()
	publishedAt := now
	if in.PublishedAt != nil {
		publishedAt = in.PublishedAt.UTC()
	}

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	return Post{
		ID:              s.newID(),
		Title:           in.Title,
		Slug:            slug,
		Summary:         in.Summary,
		ContentMarkdown: in.ContentMarkdown,
		ContentHTML:     html,
		ImageURL:        in.ImageURL,
		Tags:            tags,
		SourceURL:       in.SourceURL,
		Author:          author,
		PublishedAt:     publishedAt,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (Post, error) {
	var p Post
	var tags, publishedAt, status, createdAt, updatedAt string
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Summary, &p.ContentMarkdown, &p.ContentHTML,
		&p.ImageURL, &tags, &p.SourceURL, &p.Author, &publishedAt, &status, &createdAt, &updatedAt)
	if err != nil {
		return Post{}, err
	}
	p.Tags = decodeTags(tags)
	p.PublishedAt = decodeTime(publishedAt)
	p.Status = Status(status)
	p.CreatedAt = decodeTime(createdAt)
	p.UpdatedAt = decodeTime(updatedAt)
	return p, nil
}

// encodeTags serializes a tag sequence as a JSON array, preserving order
// and content exactly.
func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// decodeTags is the inverse of encodeTags. Malformed stored data decodes to
// an empty sequence rather than failing.
func decodeTags(raw string) []string {
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func decodeTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// isUniqueViolation reports whether err is a SQLite unique or primary key
// constraint failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() {
		case sqlite3.SQLITE_CONSTRAINT, sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// newPostID generates a URL-safe identifier from UUIDv4 bytes encoded as
// base32: 26 characters, lowercase, no padding.
func newPostID() string {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	raw[6] = (raw[6] & 0x0f) | 0x40
	raw[8] = (raw[8] & 0x3f) | 0x80
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw[:])
	return strings.ToLower(encoded)
}

// SaveImage records metadata for an uploaded image.
func (s *Store) SaveImage(img Image) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO images (filename, original_name, width, height, size, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		img.Filename, img.OriginalName, img.Width, img.Height, img.Size, img.UploadedAt)
	return err
}

// ListImages returns all uploaded images, newest first.
func (s *Store) ListImages() ([]Image, error) {
	rows, err := s.db.Query(`SELECT filename, original_name, width, height, size, uploaded_at
		FROM images ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.Filename, &img.OriginalName, &img.Width, &img.Height, &img.Size, &img.UploadedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// DeleteImage removes the metadata row for filename.
func (s *Store) DeleteImage(filename string) error {
	_, err := s.db.Exec(`DELETE FROM images WHERE filename = ?`, filename)
	return err
}
