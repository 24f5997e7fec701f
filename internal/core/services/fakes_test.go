package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jupiterclapton/complexapp/internal/core/domain"
)

type fakeRepo struct {
	posts     map[string]*domain.PostRecord
	users     map[string]domain.Author
	nextID    int
	insertErr error
	// afterCount runs once the count is computed, before it is returned
	afterCount func()

	inserted []domain.Draft
	updated  []string
	deleted  []string
	searched []string
	listed   [][]string
	counted  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		posts: map[string]*domain.PostRecord{},
		users: map[string]domain.Author{},
	}
}

func (r *fakeRepo) seed(id, authorID, title string, created time.Time) {
	r.posts[id] = &domain.PostRecord{
		ID:         id,
		Title:      title,
		Body:       title + " body",
		CreateDate: created,
		AuthorID:   authorID,
		Author:     r.users[authorID],
	}
}

func (r *fakeRepo) Insert(_ context.Context, d domain.Draft) (string, error) {
	if r.insertErr != nil {
		return "", r.insertErr
	}
	r.nextID++
	id := fmt.Sprintf("post-%d", r.nextID)
	r.inserted = append(r.inserted, d)
	r.posts[id] = &domain.PostRecord{
		ID: id, Title: d.Title, Body: d.Body, CreateDate: d.CreateDate,
		AuthorID: d.AuthorID, Author: r.users[d.AuthorID],
	}
	return id, nil
}

func (r *fakeRepo) UpdateContent(_ context.Context, id, title, body string) error {
	p, ok := r.posts[id]
	if !ok {
		return domain.ErrPostNotFound
	}
	r.updated = append(r.updated, id)
	p.Title, p.Body = title, body
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	delete(r.posts, id)
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*domain.PostRecord, error) {
	p, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) ListByAuthor(ctx context.Context, authorID string, page domain.Page) ([]*domain.PostRecord, error) {
	return r.ListByAuthors(ctx, []string{authorID}, page)
}

func (r *fakeRepo) ListByAuthors(_ context.Context, authorIDs []string, page domain.Page) ([]*domain.PostRecord, error) {
	r.listed = append(r.listed, authorIDs)
	in := map[string]bool{}
	for _, id := range authorIDs {
		in[id] = true
	}
	var out []*domain.PostRecord
	for _, p := range r.posts {
		if in[p.AuthorID] {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreateDate.After(out[j].CreateDate) })
	return paginate(out, page), nil
}

func (r *fakeRepo) Search(_ context.Context, term string, page domain.Page) ([]*domain.PostRecord, error) {
	r.searched = append(r.searched, term)
	var out []*domain.PostRecord
	for _, p := range r.posts {
		if p.Title == term {
			cp := *p
			out = append(out, &cp)
		}
	}
	return paginate(out, page), nil
}

func (r *fakeRepo) CountByAuthor(_ context.Context, authorID string) (int64, error) {
	r.counted++
	var n int64
	for _, p := range r.posts {
		if strings.EqualFold(p.AuthorID, authorID) {
			n++
		}
	}
	if hook := r.afterCount; hook != nil {
		r.afterCount = nil
		hook()
	}
	return n, nil
}

func paginate(in []*domain.PostRecord, page domain.Page) []*domain.PostRecord {
	if page.Offset > 0 {
		if page.Offset >= int64(len(in)) {
			return nil
		}
		in = in[page.Offset:]
	}
	if page.Limit > 0 && page.Limit < int64(len(in)) {
		in = in[:page.Limit]
	}
	return in
}

type fakeFollows struct {
	edges map[string][]string
	err   error
}

func (f *fakeFollows) FollowedIDs(_ context.Context, userID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.edges[userID], nil
}

type fakeCounts struct {
	values      map[string]int64
	gens        map[string]int64
	invalidated []string
	readErr     error
}

func (c *fakeCounts) key(authorID string, gen int64) string {
	return fmt.Sprintf("%s:%d", authorID, gen)
}

func (c *fakeCounts) Get(_ context.Context, authorID string) (int64, int64, bool, error) {
	if c.readErr != nil {
		return 0, 0, false, c.readErr
	}
	gen := c.gens[authorID]
	v, ok := c.values[c.key(authorID, gen)]
	return v, gen, ok, nil
}

func (c *fakeCounts) Set(_ context.Context, authorID string, gen, n int64) error {
	c.values[c.key(authorID, gen)] = n
	return nil
}

func (c *fakeCounts) Invalidate(_ context.Context, authorID string) error {
	c.invalidated = append(c.invalidated, authorID)
	c.gens[authorID]++
	return nil
}

type fakePublisher struct {
	created, updated, deleted []string
}

func (p *fakePublisher) PublishPostCreated(_ context.Context, id string, _ domain.Draft) error {
	p.created = append(p.created, id)
	return nil
}

func (p *fakePublisher) PublishPostUpdated(_ context.Context, id, _ string) error {
	p.updated = append(p.updated, id)
	return nil
}

func (p *fakePublisher) PublishPostDeleted(_ context.Context, id, _ string) error {
	p.deleted = append(p.deleted, id)
	return errors.New("broker down")
}

type fakeAvatars struct{}

func (fakeAvatars) Avatar(a domain.Author) string {
	return "avatar:" + a.Username
}
