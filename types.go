package postapi

import "time"

// Status is the visibility state of a post. Only published posts appear in
// the public API, the RSS feed, and the sitemap.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid reports whether s is one of the known status values.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Post is the core content type stored in SQLite and served as JSON.
type Post struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Summary         string    `json:"summary,omitempty"`
	ContentMarkdown string    `json:"contentMarkdown,omitempty"`
	ContentHTML     string    `json:"contentHtml"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	Tags            []string  `json:"tags"`
	SourceURL       string    `json:"sourceUrl,omitempty"`
	Author          string    `json:"author"`
	PublishedAt     time.Time `json:"publishedAt"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// PostInput carries the caller-supplied fields for Create and UpsertBySlug.
// Slug is derived from Title when empty. ContentHTML wins over ContentMarkdown
// when both are given; otherwise HTML is rendered from the markdown.
type PostInput struct {
	Title           string     `json:"title" validate:"required"`
	Slug            string     `json:"slug"`
	Summary         string     `json:"summary"`
	ContentMarkdown string     `json:"contentMarkdown" validate:"required_without=ContentHTML"`
	ContentHTML     string     `json:"contentHtml"`
	ImageURL        string     `json:"imageUrl" validate:"omitempty,url"`
	Tags            []string   `json:"tags"`
	SourceURL       string     `json:"sourceUrl" validate:"omitempty,url"`
	Author          string     `json:"author"`
	PublishedAt     *time.Time `json:"publishedAt"`
	Status          string     `json:"status" validate:"omitempty,oneof=draft published"`
}

// PostPatch carries a partial update. Nil fields are left untouched.
type PostPatch struct {
	Title           *string    `json:"title" validate:"omitempty,min=1"`
	Slug            *string    `json:"slug"`
	Summary         *string    `json:"summary"`
	ContentMarkdown *string    `json:"contentMarkdown"`
	ContentHTML     *string    `json:"contentHtml"`
	ImageURL        *string    `json:"imageUrl" validate:"omitempty,url"`
	Tags            *[]string  `json:"tags"`
	SourceURL       *string    `json:"sourceUrl" validate:"omitempty,url"`
	Author          *string    `json:"author"`
	PublishedAt     *time.Time `json:"publishedAt"`
	Status          *string    `json:"status" validate:"omitempty,oneof=draft published"`
}

// ListFilter selects and orders a page of posts. Zero values fall back to
// page 1, limit 10, publishedAt descending. Limit is clamped to 1..50.
type ListFilter struct {
	Status  Status
	Page    int
	Limit   int
	OrderBy string // publishedAt, updatedAt or title
	Order   string // asc or desc
}

// ListResult is the pagination envelope returned by List. Total counts every
// row matching the status filter, independent of the requested window.
type ListResult struct {
	Items   []Post `json:"items"`
	Page    int    `json:"page"`
	Total   int    `json:"total"`
	HasMore bool   `json:"hasMore"`
}

// Image is the stored metadata for an uploaded image.
type Image struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Size         int    `json:"size"`
	UploadedAt   string `json:"uploadedAt"`
	URL          string `json:"url,omitempty"`
}
