package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix        = "user:%d"
	PostListVersionKey   = "publicacoes:list:version"
	postListKeyFormat    = "publicacoes:list:v%d:%d:%d"
	postListKeyAllMarker = -1
)

const (
	UserTTL     = 5 * time.Minute
	PostListTTL = 30 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// PostListKey returns the cache key of one page of the feed under the current list version.
// A limit of zero means the unpaginated list.
func PostListKey(ctx context.Context, limit, offset int) string {
	if limit <= 0 {
		limit, offset = postListKeyAllMarker, 0
	}
	return fmt.Sprintf(postListKeyFormat, postListVersion(ctx), limit, offset)
}

func postListVersion(ctx context.Context) int64 {
	if client == nil {
		return 0
	}
	v, err := client.Get(ctx, PostListVersionKey).Int64()
	if err != nil {
		return 0
	}
	return v
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidatePostList bumps the list version so every cached page becomes unreachable at once.
// Stale pages expire on their own TTL.
func InvalidatePostList(ctx context.Context) {
	if client != nil {
		client.Incr(ctx, PostListVersionKey)
	}
}
