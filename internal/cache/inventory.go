package cache

import (
	"context"
	"time"
)

// Keys holding the active taxonomy listings.
const (
	ActiveCategoriesKey = "categories:active"
	ActiveTagsKey       = "tags:active"
)

// Key families used as metric labels.
const (
	FamilyCategories = "categories"
	FamilyTags       = "tags"
)

// TaxonomyTTL bounds how stale a cached listing can get if an invalidation is lost.
const TaxonomyTTL = 10 * time.Minute

// Invalidate removes keys from the cache. It is a no-op without Redis.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateCategories(ctx context.Context) {
	Invalidate(ctx, ActiveCategoriesKey)
}

func InvalidateTags(ctx context.Context) {
	Invalidate(ctx, ActiveTagsKey)
}
