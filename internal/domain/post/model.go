package post

import "time"

const (
	TypeHeader = "header"
	TypeUpdate = "update"
	TypeDaily  = "daily"
)

// Post mirrors one published record. URI and CID are issued by the
// publishing service and opaque here. RootID/ParentID are local
// self-references: a reply always carries both, a root carries neither.
type Post struct {
	ID        int64
	URI       string
	CID       string
	PostText  string
	CreatedAt time.Time
	UpdatedAt time.Time
	PostType  string
	RootID    *int64
	ParentID  *int64
}

func (p Post) IsRoot() bool {
	return p.RootID == nil && p.ParentID == nil
}

// Ref is the external identity pair the publisher needs to position a reply.
type Ref struct {
	URI string
	CID string
}

func (p Post) Ref() Ref {
	return Ref{URI: p.URI, CID: p.CID}
}
