package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"postboard/internal/models"
)

// ListParams selects one page of posts.
type ListParams struct {
	Limit         int
	Page          int
	Tag           string
	IncludeAuthor bool
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Tag != "" {
		q.Set("tag", p.Tag)
	}
	if p.IncludeAuthor {
		q.Set("_author", "true")
	}
	return q
}

// ListPosts returns one page of the global post list, newest first.
func (c *Client) ListPosts(ctx context.Context, token string, params ListParams) (*models.PostPage, error) {
	env, err := c.do(ctx, request{
		operation: "list_posts",
		method:    http.MethodGet,
		path:      "/social/posts",
		query:     params.values(),
		token:     token,
		fallback:  "Failed to fetch posts",
	})
	if err != nil {
		return nil, err
	}
	return decodePage("list_posts", env)
}

// ListProfilePosts returns one page of the posts written by name.
func (c *Client) ListProfilePosts(ctx context.Context, token, name string, params ListParams) (*models.PostPage, error) {
	env, err := c.do(ctx, request{
		operation: "list_profile_posts",
		method:    http.MethodGet,
		path:      "/social/profiles/" + url.PathEscape(name) + "/posts",
		query:     params.values(),
		token:     token,
		fallback:  "Failed to fetch posts",
	})
	if err != nil {
		return nil, err
	}
	return decodePage("list_profile_posts", env)
}

func decodePage(operation string, env *envelope) (*models.PostPage, error) {
	page := &models.PostPage{}
	if err := decodeData(operation, env, &page.Data); err != nil {
		return nil, err
	}
	if isAbsent(env.Meta) {
		return nil, models.NewMalformedResponseError(operation, "missing meta field")
	}
	meta := &models.PaginationMetadata{}
	if err := decodeRaw(operation, env.Meta, meta); err != nil {
		return nil, err
	}
	page.Meta = meta
	if page.Data == nil {
		page.Data = []models.Post{}
	}
	return page, nil
}

// GetPost fetches a single post. A 404 becomes a NOT_FOUND error.
func (c *Client) GetPost(ctx context.Context, token string, id int, includeAuthor bool) (*models.Post, error) {
	q := url.Values{}
	if includeAuthor {
		q.Set("_author", "true")
	}

	env, err := c.do(ctx, request{
		operation: "get_post",
		method:    http.MethodGet,
		path:      "/social/posts/" + strconv.Itoa(id),
		query:     q,
		token:     token,
		fallback:  "Failed to fetch post",
	})
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, err
	}
	return decodePost("get_post", env)
}

// CreatePost creates a post owned by the token's profile.
func (c *Client) CreatePost(ctx context.Context, token string, in models.PostInput) (*models.Post, error) {
	env, err := c.do(ctx, request{
		operation: "create_post",
		method:    http.MethodPost,
		path:      "/social/posts",
		token:     token,
		body:      in,
		fallback:  "Failed to create post",
	})
	if err != nil {
		return nil, err
	}
	return decodePost("create_post", env)
}

// UpdatePost sends only the fields set on in.
func (c *Client) UpdatePost(ctx context.Context, token string, id int, in models.PostInput) (*models.Post, error) {
	env, err := c.do(ctx, request{
		operation: "update_post",
		method:    http.MethodPut,
		path:      "/social/posts/" + strconv.Itoa(id),
		token:     token,
		body:      in,
		fallback:  "Failed to update post",
	})
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, err
	}
	return decodePost("update_post", env)
}

// DeletePost deletes a post. The API answers 204 with no body.
func (c *Client) DeletePost(ctx context.Context, token string, id int) error {
	_, err := c.do(ctx, request{
		operation: "delete_post",
		method:    http.MethodDelete,
		path:      "/social/posts/" + strconv.Itoa(id),
		token:     token,
		fallback:  "Failed to delete post",
	})
	if statusOf(err) == http.StatusNotFound {
		return models.NewNotFoundError("Post", id)
	}
	return err
}

func decodePost(operation string, env *envelope) (*models.Post, error) {
	post := &models.Post{}
	if err := decodeData(operation, env, post); err != nil {
		return nil, err
	}
	if post.ID == 0 {
		return nil, models.NewMalformedResponseError(operation, "post without id")
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}
	return post, nil
}
