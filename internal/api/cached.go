package api

import (
	"context"
	"time"

	"postboard/internal/cache"
	"postboard/internal/models"
	"postboard/internal/observability"

	"github.com/redis/go-redis/v9"
)

// CachedClient is a read-through Redis cache in front of Client. Writes go
// straight to the API and then invalidate what they could have changed.
// Cached data is not user-specific: every profile sees the same posts.
type CachedClient struct {
	*Client
	rdb *redis.Client
	ttl time.Duration
}

// NewCachedClient wraps c. A nil rdb makes every read a miss.
func NewCachedClient(c *Client, rdb *redis.Client, ttl time.Duration) *CachedClient {
	return &CachedClient{Client: c, rdb: rdb, ttl: ttl}
}

func (c *CachedClient) listVersion(ctx context.Context) int64 {
	v, err := cache.PostListVersion(ctx, c.rdb)
	if err != nil {
		observability.Logger.WarnContext(ctx, "read post list version", "error", err)
	}
	return v
}

// ListPosts serves a page from the cache when present.
func (c *CachedClient) ListPosts(ctx context.Context, token string, params ListParams) (*models.PostPage, error) {
	key := cache.PostListKey(c.listVersion(ctx), params.Page, params.Limit, params.Tag, params.IncludeAuthor)

	var page models.PostPage
	_, err := cache.Aside(ctx, c.rdb, key, &page, c.ttl, func() error {
		fresh, err := c.Client.ListPosts(ctx, token, params)
		if err != nil {
			return err
		}
		page = *fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// ListProfilePosts serves a profile's page from the cache when present.
func (c *CachedClient) ListProfilePosts(ctx context.Context, token, name string, params ListParams) (*models.PostPage, error) {
	key := cache.ProfilePostsKey(c.listVersion(ctx), name, params.Page, params.Limit)

	var page models.PostPage
	_, err := cache.Aside(ctx, c.rdb, key, &page, c.ttl, func() error {
		fresh, err := c.Client.ListProfilePosts(ctx, token, name, params)
		if err != nil {
			return err
		}
		page = *fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPost caches the author-expanded form and strips the author on request.
func (c *CachedClient) GetPost(ctx context.Context, token string, id int, includeAuthor bool) (*models.Post, error) {
	var post models.Post
	_, err := cache.Aside(ctx, c.rdb, cache.PostKey(id), &post, c.ttl, func() error {
		fresh, err := c.Client.GetPost(ctx, token, id, true)
		if err != nil {
			return err
		}
		post = *fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !includeAuthor {
		post.Author = nil
	}
	return &post, nil
}

// GetProfile serves a profile from the cache when present.
func (c *CachedClient) GetProfile(ctx context.Context, token, name string) (*models.Profile, error) {
	var profile models.Profile
	_, err := cache.Aside(ctx, c.rdb, cache.ProfileKey(name), &profile, c.ttl, func() error {
		fresh, err := c.Client.GetProfile(ctx, token, name)
		if err != nil {
			return err
		}
		profile = *fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreatePost creates the post and invalidates every cached list page.
func (c *CachedClient) CreatePost(ctx context.Context, token string, in models.PostInput) (*models.Post, error) {
	post, err := c.Client.CreatePost(ctx, token, in)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, post.ID)
	if post.Author != nil {
		cache.Invalidate(ctx, c.rdb, cache.ProfileKey(post.Author.Name))
	}
	return post, nil
}

// UpdatePost updates the post and drops its cached copies.
func (c *CachedClient) UpdatePost(ctx context.Context, token string, id int, in models.PostInput) (*models.Post, error) {
	post, err := c.Client.UpdatePost(ctx, token, id, in)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, id)
	return post, nil
}

// DeletePost deletes the post and drops its cached copies.
func (c *CachedClient) DeletePost(ctx context.Context, token string, id int) error {
	if err := c.Client.DeletePost(ctx, token, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *CachedClient) invalidate(ctx context.Context, id int) {
	if err := cache.InvalidatePost(ctx, c.rdb, id); err != nil {
		observability.Logger.WarnContext(ctx, "invalidate cached posts", "post_id", id, "error", err)
	}
}
