package types

import (
	"time"

	"herald/internal/utils"
)

type SourceKind string

const (
	KindFeed SourceKind = "feed"
	KindSite SourceKind = "site"
)

// UnknownPublished is reported for articles whose source carries no timestamp.
const UnknownPublished = "unknown"

type FeedSource struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// ScrapeSite describes an HTML page turned into articles by pairing the
// Nth match of each selector. BodySelector is optional.
type ScrapeSite struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	TitleSelector string    `json:"title_selector"`
	LinkSelector  string    `json:"link_selector"`
	BodySelector  string    `json:"body_selector,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s ScrapeSite) HasBody() bool {
	return s.BodySelector != ""
}

type Article struct {
	Source          string     `json:"source"`
	PublishedAt     string     `json:"published_at"`
	PublishedParsed *time.Time `json:"-"`
	Title           string     `json:"title"`
	Link            string     `json:"link"`
	Body            string     `json:"body,omitempty"`
}

// DisplayArticle is an Article whose title has been rendered as a link label.
type DisplayArticle struct {
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Body        string `json:"body,omitempty"`
}

type SourceStatus struct {
	Kind       SourceKind `json:"kind"`
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	URL        string     `json:"url"`
	Count      int        `json:"count"`
	Error      string     `json:"error,omitempty"`
	ErrorKind  ErrorKind  `json:"error_kind,omitempty"`
	DurationMS int64      `json:"duration_ms"`
}

func (s SourceStatus) OK() bool {
	return s.Error == ""
}

type Report struct {
	RunID     string         `json:"run_id"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"-"`
	Articles  []Article      `json:"articles"`
	Statuses  []SourceStatus `json:"sources"`
}

func (r *Report) Failed() []SourceStatus {
	return utils.FilterArray(r.Statuses, func(s SourceStatus) bool {
		return !s.OK()
	})
}

func (r *Report) Succeeded() []SourceStatus {
	return utils.FilterArray(r.Statuses, SourceStatus.OK)
}

// Result is the outcome of a store mutation, carried as a status message
// rather than a returned error.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      int64  `json:"id,omitempty"`
	Err     error  `json:"-"`
}

func OK(message string) Result {
	return Result{Success: true, Message: message}
}

func Fail(err error) Result {
	return Result{Success: false, Message: err.Error(), Err: err}
}

func (r Result) WithID(id int64) Result {
	r.ID = id
	return r
}
