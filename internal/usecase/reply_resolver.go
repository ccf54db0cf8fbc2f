package usecase

import (
	"context"
	"fmt"

	"github.com/scorethread/scorethread/internal/domain/post"
)

// ReplyThread is everything needed to publish one threaded reply: the
// external refs the publisher wants plus the local ids recorded on the new
// post row.
type ReplyThread struct {
	ParentID int64
	RootID   int64
	Refs     ReplyRefs
}

// ReplyChainResolver maps a game's previous post to its {parent, root}
// reply target. The chain is deliberately flat: every update replies to the
// immediately preceding post while sharing the header's root, so the whole
// game nests under one thread. Do not collapse parent onto root.
type ReplyChainResolver struct {
	posts post.Repository
}

func NewReplyChainResolver(posts post.Repository) *ReplyChainResolver {
	return &ReplyChainResolver{posts: posts}
}

func (r *ReplyChainResolver) Resolve(ctx context.Context, previousPostID int64) (ReplyThread, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReplyChainResolver.Resolve")
	defer span.End()

	previous, ok, err := r.posts.Get(ctx, previousPostID)
	if err != nil {
		return ReplyThread{}, fmt.Errorf("get previous post id=%d: %w", previousPostID, err)
	}
	if !ok {
		// A game row referenced a post that was never written. Fatal for the
		// game; retrying cannot repair it.
		return ReplyThread{}, fmt.Errorf("%w: reply target post id=%d does not exist", ErrInvariant, previousPostID)
	}

	if previous.RootID == nil {
		return ReplyThread{
			ParentID: previous.ID,
			RootID:   previous.ID,
			Refs:     ReplyRefs{Parent: previous.Ref(), Root: previous.Ref()},
		}, nil
	}

	root, ok, err := r.posts.Get(ctx, *previous.RootID)
	if err != nil {
		return ReplyThread{}, fmt.Errorf("get root post id=%d: %w", *previous.RootID, err)
	}
	if !ok {
		return ReplyThread{}, fmt.Errorf("%w: root post id=%d does not exist", ErrInvariant, *previous.RootID)
	}

	return ReplyThread{
		ParentID: previous.ID,
		RootID:   root.ID,
		Refs:     ReplyRefs{Parent: previous.Ref(), Root: root.Ref()},
	}, nil
}
