package domain

import (
	"errors"
	"strings"
	"time"
)

// --- DOMAIN ERRORS ---
var (
	// ErrPostNotFound covers a missing post, a post owned by someone else and a malformed id.
	// Callers cannot tell them apart.
	ErrPostNotFound      = errors.New("post not found")
	ErrInvalidSearchTerm = errors.New("search term must be text")
	ErrUnauthenticated   = errors.New("authentication required")
)

const (
	MsgTitleRequired = "You must provide a title."
	MsgBodyRequired  = "You must provide a post content."
	MsgTryAgainLater = "Please try again later."
)

// ValidationErrors is the ordered list of user-facing messages produced by create and update.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return strings.Join(v, " ")
}

// Submission is the raw input of a create or update, as decoded by the transport.
// Values are untyped: nothing guarantees that title or body are strings.
type Submission map[string]any

// Draft is the sanitized record that gets persisted.
type Draft struct {
	Title      string
	Body       string
	CreateDate time.Time
	AuthorID   string
}

// Validate returns one message per missing field, title first.
func (d Draft) Validate() ValidationErrors {
	var errs ValidationErrors
	if d.Title == "" {
		errs = append(errs, MsgTitleRequired)
	}
	if d.Body == "" {
		errs = append(errs, MsgBodyRequired)
	}
	return errs
}

// Page bounds a listing. The zero value returns everything.
type Page struct {
	Limit  int64
	Offset int64
}

// Author is the joined user document as read by the composer.
type Author struct {
	Username string
	Email    string
}

// PostRecord is one composed row: the post, its raw author id and the joined author.
// It never leaves the core; View is the only way out.
type PostRecord struct {
	ID         string
	Title      string
	Body       string
	CreateDate time.Time
	AuthorID   string
	Author     Author
}

// AuthorView is the public part of an author.
type AuthorView struct {
	Username string
	Avatar   string
}

// PostView is what callers receive.
type PostView struct {
	ID             string
	Title          string
	Body           string
	CreateDate     time.Time
	IsVisitorOwner bool
	Author         AuthorView
}

// CanonicalID is the lower-case form of a hex id. ObjectIDs are case-insensitive,
// so anything keyed by an id (ownership, cache keys) goes through it.
func CanonicalID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// View reshapes the record for visitorID. An empty visitor never owns anything.
func (r *PostRecord) View(visitorID, avatar string) *PostView {
	visitor := CanonicalID(visitorID)
	return &PostView{
		ID:             r.ID,
		Title:          r.Title,
		Body:           r.Body,
		CreateDate:     r.CreateDate,
		IsVisitorOwner: visitor != "" && CanonicalID(r.AuthorID) == visitor,
		Author: AuthorView{
			Username: r.Author.Username,
			Avatar:   avatar,
		},
	}
}
