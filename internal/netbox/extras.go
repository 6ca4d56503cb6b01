package netbox

import (
	"context"

	"github.com/gosimple/slug"
)

func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	return list[Tag](ctx, c, "/api/extras/tags/", nil)
}

// CreateTag creates a tag; the slug is derived from the name.
func (c *Client) CreateTag(ctx context.Context, name string) (*Tag, error) {
	return create[Tag](ctx, c, "/api/extras/tags/", TagRequest{Name: name, Slug: Slugify(name)})
}

// Slugify follows NetBox slug rules: lowercase, [a-z0-9_-] only.
func Slugify(name string) string { return slug.Make(name) }
