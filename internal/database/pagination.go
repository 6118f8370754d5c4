// internal/database/pagination.go
package database

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/afnan9700/driftwood/internal/models"
	"github.com/afnan9700/driftwood/internal/utils"
)

// DefaultPageLimit is used when a page request does not specify a limit.
const DefaultPageLimit = 10

// MaxPageLimit caps how many items a single page may return.
const MaxPageLimit = 100

// Cursor marks the position of the last item of a page. It is
// self-contained: decoding it is enough to resume the walk, no lookup
// of the referenced document is required.
type Cursor struct {
	TieBreakID string    `json:"_id"`
	SortValue  time.Time `json:"v"`
}

// EncodeCursor serializes a cursor into an opaque URL-safe token.
func EncodeCursor(c Cursor) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses an opaque token back into a cursor. Any
// malformed token yields an INVALID_CURSOR error.
func DecodeCursor(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, utils.NewInvalidCursorError(err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, utils.NewInvalidCursorError(err)
	}
	if c.TieBreakID == "" || c.SortValue.IsZero() {
		return Cursor{}, utils.NewInvalidCursorError(errors.New("missing cursor fields"))
	}
	return c, nil
}

// PageRequest describes one page of a cursor walk.
type PageRequest struct {
	Cursor *Cursor
	Limit  int
}

// EffectiveLimit clamps the requested limit into [1, MaxPageLimit],
// falling back to the default when unset.
func (p PageRequest) EffectiveLimit() int {
	if p.Limit <= 0 {
		return DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		return MaxPageLimit
	}
	return p.Limit
}

// PostPage is one page of a post walk.
type PostPage struct {
	Items      []*models.Post
	NextCursor *string
	HasMore    bool
}

// postAfterCursor reports whether a post sorts strictly after the
// cursor position in newest-first order. Ties on the timestamp fall
// back to descending id comparison so the ordering is total.
func postAfterCursor(p *models.Post, c Cursor) bool {
	if p.CreatedAt.Before(c.SortValue) {
		return true
	}
	if p.CreatedAt.Equal(c.SortValue) && p.ID.String() < c.TieBreakID {
		return true
	}
	return false
}

// buildPostPage applies the limit+1 convention to an ordered,
// already-windowed slice of posts: fetch one more than asked, use the
// extra row's presence as HasMore, and derive NextCursor from the last
// item actually returned.
func buildPostPage(fetched []*models.Post, limit int) *PostPage {
	page := &PostPage{Items: fetched}
	if len(fetched) > limit {
		page.Items = fetched[:limit]
		page.HasMore = true
		last := page.Items[len(page.Items)-1]
		token := EncodeCursor(Cursor{TieBreakID: last.ID.String(), SortValue: last.CreatedAt})
		page.NextCursor = &token
	}
	return page
}
