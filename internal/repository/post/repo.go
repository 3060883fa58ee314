// Package post persists blog posts and their embeddings.
package post

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/blogdex/internal/db"
	"github.com/kailas-cloud/blogdex/internal/domain"
	dompost "github.com/kailas-cloud/blogdex/internal/domain/post"
	"github.com/kailas-cloud/blogdex/internal/domain/search/result"
)

const table = "posts"

var (
	psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	columns = []string{
		"id", "title", "slug", "content", "content_html", "cover_image", "header_image",
		"meta_description", "keywords", "category", "tags", "status", "sort_order",
		"created_at", "updated_at", "content_updated_at",
	}
)

// querier is the consumer interface over a pgx pool (ISP).
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repo implements the post store on Postgres with pgvector.
type Repo struct {
	db querier
}

// New creates a Postgres post repository.
func New(q querier) *Repo {
	return &Repo{db: q}
}

// Create inserts p and fills its ID and timestamps.
func (r *Repo) Create(ctx context.Context, p *dompost.Post) error {
	query, args, err := psql.Insert(table).
		Columns("title", "slug", "content", "content_html", "cover_image", "header_image",
			"meta_description", "keywords", "category", "tags", "status", "sort_order").
		Values(p.Title, p.Slug, p.Content, p.ContentHTML, p.CoverImage, p.HeaderImage,
			p.MetaDescription, p.Keywords, p.Category, tagsOrEmpty(p.Tags), string(p.Status), p.Order).
		Suffix("RETURNING id, created_at, updated_at, content_updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	err = r.db.QueryRow(ctx, query, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &p.ContentUpdatedAt)
	if err != nil {
		return mapWriteError(db.OpInsert, p.Slug, err)
	}
	return nil
}

// Update overwrites the editable fields of p. content_updated_at moves only
// when the content actually changes.
func (r *Repo) Update(ctx context.Context, p *dompost.Post) error {
	query, args, err := psql.Update(table).
		Set("title", p.Title).
		Set("slug", p.Slug).
		Set("content", p.Content).
		Set("cover_image", p.CoverImage).
		Set("header_image", p.HeaderImage).
		Set("meta_description", p.MetaDescription).
		Set("keywords", p.Keywords).
		Set("category", p.Category).
		Set("tags", tagsOrEmpty(p.Tags)).
		Set("status", string(p.Status)).
		Set("sort_order", p.Order).
		Set("content_updated_at",
			sq.Expr("CASE WHEN content IS DISTINCT FROM ? THEN now() ELSE content_updated_at END", p.Content)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": p.ID}).
		Suffix("RETURNING created_at, updated_at, content_updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	err = r.db.QueryRow(ctx, query, args...).Scan(&p.CreatedAt, &p.UpdatedAt, &p.ContentUpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("post %d: %w", p.ID, domain.ErrPostNotFound)
		}
		return mapWriteError(db.OpUpdate, p.Slug, err)
	}
	return nil
}

// Get returns a post by ID.
func (r *Repo) Get(ctx context.Context, id int64) (dompost.Post, error) {
	query, args, err := psql.Select(columns...).From(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return dompost.Post{}, fmt.Errorf("build select: %w", err)
	}

	p, err := scanPost(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dompost.Post{}, fmt.Errorf("post %d: %w", id, domain.ErrPostNotFound)
		}
		return dompost.Post{}, &db.Error{Op: db.OpSelect, Err: err}
	}
	return p, nil
}

// GetMany loads posts by ID in one query. Unknown IDs are absent from the map.
func (r *Repo) GetMany(ctx context.Context, ids []int64) (map[int64]dompost.Post, error) {
	out := make(map[int64]dompost.Post, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := psql.Select(columns...).From(table).Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	posts, err := r.queryPosts(ctx, query, args)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		out[p.ID] = p
	}
	return out, nil
}

// List returns a page of posts, highest sort order and newest first.
func (r *Repo) List(ctx context.Context, offset, limit int) ([]dompost.Post, error) {
	query, args, err := psql.Select(columns...).From(table).
		OrderBy("sort_order DESC", "created_at DESC", "id DESC").
		Offset(uint64(max(offset, 0))).
		Limit(uint64(max(limit, 0))).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	return r.queryPosts(ctx, query, args)
}

// Count returns the number of stored posts.
func (r *Repo) Count(ctx context.Context) (int, error) {
	query, args, err := psql.Select("count(*)").From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, &db.Error{Op: db.OpSelect, Err: err}
	}
	return n, nil
}

// IDs returns every post ID in ascending order.
func (r *Repo) IDs(ctx context.Context) ([]int64, error) {
	query, args, err := psql.Select("id").From(table).OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, &db.Error{Op: db.OpSelect, Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	return ids, nil
}

// Sitemap returns the id/slug/updated_at projection of every post.
func (r *Repo) Sitemap(ctx context.Context) ([]dompost.SitemapEntry, error) {
	query, args, err := psql.Select("id", "slug", "updated_at").From(table).OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	defer rows.Close()

	entries := []dompost.SitemapEntry{}
	for rows.Next() {
		var e dompost.SitemapEntry
		if err := rows.Scan(&e.ID, &e.Slug, &e.UpdatedAt); err != nil {
			return nil, &db.Error{Op: db.OpSelect, Err: err}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	return entries, nil
}

// UpdateEmbedding stores the vector of a post.
func (r *Repo) UpdateEmbedding(ctx context.Context, id int64, vec []float32) error {
	return r.updateColumn(ctx, id, "embedding", pgvector.NewVector(vec))
}

// UpdateHTML stores the rendered HTML of a post.
func (r *Repo) UpdateHTML(ctx context.Context, id int64, html string) error {
	return r.updateColumn(ctx, id, "content_html", html)
}

// Similar ranks every embedded post by cosine distance to vec, keeping
// distances strictly below maxDistance. Ties are ordered by ID.
func (r *Repo) Similar(ctx context.Context, vec []float32, maxDistance float64) ([]result.Entry, error) {
	v := pgvector.NewVector(vec)
	query, args, err := psql.Select("id").
		Column(sq.Expr("embedding <=> ? AS distance", v)).
		From(table).
		Where("embedding IS NOT NULL").
		Where(sq.Expr("embedding <=> ? < ?", v, maxDistance)).
		OrderBy("distance ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build similarity query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	defer rows.Close()

	entries := []result.Entry{}
	for rows.Next() {
		var e result.Entry
		if err := rows.Scan(&e.PostID, &e.Distance); err != nil {
			return nil, &db.Error{Op: db.OpSelect, Err: err}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	return entries, nil
}

func (r *Repo) updateColumn(ctx context.Context, id int64, column string, value any) error {
	query, args, err := psql.Update(table).Set(column, value).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return &db.Error{Op: db.OpUpdate, Err: err}
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("post %d: %w", id, domain.ErrPostNotFound)
	}
	return nil
}

func (r *Repo) queryPosts(ctx context.Context, query string, args []any) ([]dompost.Post, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	defer rows.Close()

	posts := []dompost.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, &db.Error{Op: db.OpSelect, Err: err}
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	return posts, nil
}

func scanPost(row pgx.Row) (dompost.Post, error) {
	var (
		p      dompost.Post
		status string
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.ContentHTML, &p.CoverImage, &p.HeaderImage,
		&p.MetaDescription, &p.Keywords, &p.Category, &p.Tags, &status, &p.Order,
		&p.CreatedAt, &p.UpdatedAt, &p.ContentUpdatedAt,
	)
	if err != nil {
		return dompost.Post{}, err
	}
	p.Status = dompost.Status(status)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p, nil
}

func mapWriteError(op, slug string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("slug %q: %w", slug, domain.ErrAlreadyExists)
	}
	return &db.Error{Op: op, Err: err}
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
