package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	PostKeyPrefix         = "post:%d"
	ProfileKeyPrefix      = "profile:%s"
	PostListVersionKey    = "posts:version"
	PostListKeyPrefix     = "posts:v%d:page:%d:limit:%d:tag:%s:author:%t"
	ProfilePostsKeyPrefix = "posts:v%d:profile:%s:page:%d:limit:%d"
	SessionKeyPrefix      = "session:%s"
	FlashKeyPrefix        = "session:%s:flash"
)

func PostKey(postID int) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func ProfileKey(name string) string {
	return fmt.Sprintf(ProfileKeyPrefix, strings.ToLower(name))
}

// PostListKey names one cached page of the post list. The version component
// changes whenever a post is written, orphaning every older page.
func PostListKey(version int64, page, limit int, tag string, includeAuthor bool) string {
	return fmt.Sprintf(PostListKeyPrefix, version, page, limit, strings.ToLower(tag), includeAuthor)
}

func ProfilePostsKey(version int64, name string, page, limit int) string {
	return fmt.Sprintf(ProfilePostsKeyPrefix, version, strings.ToLower(name), page, limit)
}

func SessionKey(id string) string {
	return fmt.Sprintf(SessionKeyPrefix, id)
}

func FlashKey(id string) string {
	return fmt.Sprintf(FlashKeyPrefix, id)
}

// PostListVersion returns the current list version, 0 when unset.
func PostListVersion(ctx context.Context, rdb *redis.Client) (int64, error) {
	if rdb == nil {
		return 0, nil
	}
	v, err := rdb.Get(ctx, PostListVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// BumpPostListVersion invalidates every cached list page.
func BumpPostListVersion(ctx context.Context, rdb *redis.Client) error {
	if rdb == nil {
		return nil
	}
	return rdb.Incr(ctx, PostListVersionKey).Err()
}

func Invalidate(ctx context.Context, rdb *redis.Client, keys ...string) {
	if rdb != nil && len(keys) > 0 {
		rdb.Del(ctx, keys...)
	}
}

// InvalidatePost drops a post and every list page that might contain it.
func InvalidatePost(ctx context.Context, rdb *redis.Client, postID int) error {
	Invalidate(ctx, rdb, PostKey(postID))
	return BumpPostListVersion(ctx, rdb)
}
