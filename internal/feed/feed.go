// Package feed composes the scoped, ordered post sequences behind the
// four listing routes and slices them into pages.
package feed

import (
	"context"
	"errors"
	"yatube/internal/models"
)

// Route selects the scoping mode for a listing.
type Route int

const (
	All Route = iota
	ByGroup
	ByAuthor
	Followed
)

// ErrViewerRequired is returned when the followed-authors feed is
// composed without a viewer. The auth middleware should have rejected
// the request before it got here.
var ErrViewerRequired = errors.New("feed: followed route requires a viewer")

// PostSource is the slice of the post store the composer needs:
// one method per scoped query, each returning the full ordered result
// (newest first, id descending on equal timestamps).
type PostSource interface {
	All(ctx context.Context) ([]models.Post, error)
	ByGroup(ctx context.Context, slug string) ([]models.Post, error)
	ByAuthor(ctx context.Context, username string) ([]models.Post, error)
	ByAuthors(ctx context.Context, authorIDs []uint) ([]models.Post, error)
}

// FollowSource resolves the viewer's followed-author set.
type FollowSource interface {
	FollowedAuthorIDs(ctx context.Context, userID uint) ([]uint, error)
}

type Composer struct {
	posts   PostSource
	follows FollowSource
}

func NewComposer(posts PostSource, follows FollowSource) *Composer {
	return &Composer{posts: posts, follows: follows}
}

// Compose returns the full scoped result for the route, unpaginated.
// param carries the group slug for ByGroup and the author username for
// ByAuthor; it is ignored otherwise. Unknown slugs or usernames yield
// an empty sequence.
func (c *Composer) Compose(ctx context.Context, route Route, viewer *models.User, param string) ([]models.Post, error) {
	switch route {
	case All:
		return c.posts.All(ctx)
	case ByGroup:
		return c.posts.ByGroup(ctx, param)
	case ByAuthor:
		return c.posts.ByAuthor(ctx, param)
	case Followed:
		if viewer == nil {
			return nil, ErrViewerRequired
		}
		authorIDs, err := c.follows.FollowedAuthorIDs(ctx, viewer.ID)
		if err != nil {
			return nil, err
		}
		return c.posts.ByAuthors(ctx, authorIDs)
	default:
		return nil, errors.New("feed: unknown route")
	}
}
