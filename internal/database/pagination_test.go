package database

import (
	"testing"
	"time"

	"github.com/afnan9700/driftwood/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCursorRoundTrip(t *testing.T) {
	original := Cursor{
		TieBreakID: uuid.New().String(),
		SortValue:  time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
	}

	token := EncodeCursor(original)
	assert.NotEmpty(t, token)

	decoded, err := DecodeCursor(token)
	if err != nil {
		t.Fatalf("decoding a freshly encoded cursor failed: %v", err)
	}
	assert.Equal(t, original.TieBreakID, decoded.TieBreakID)
	assert.True(t, original.SortValue.Equal(decoded.SortValue))
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	cases := []string{
		"not base64 at all!!!",
		"aGVsbG8",              // base64 but not JSON
		"e30",                  // "{}" with no fields
		"",
	}
	for _, token := range cases {
		_, err := DecodeCursor(token)
		assert.Error(t, err, "token %q should be rejected", token)
		assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidCursor))
	}
}

func TestDecodeCursorRejectsTampered(t *testing.T) {
	token := EncodeCursor(Cursor{TieBreakID: uuid.New().String(), SortValue: time.Now()})
	tampered := token[:len(token)-4] + "%%%%"
	_, err := DecodeCursor(tampered)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidCursor))
}

func TestEffectiveLimit(t *testing.T) {
	assert.Equal(t, DefaultPageLimit, PageRequest{}.EffectiveLimit())
	assert.Equal(t, DefaultPageLimit, PageRequest{Limit: -5}.EffectiveLimit())
	assert.Equal(t, 25, PageRequest{Limit: 25}.EffectiveLimit())
	assert.Equal(t, MaxPageLimit, PageRequest{Limit: 10000}.EffectiveLimit())
}

func TestBuildPostPageLastPage(t *testing.T) {
	posts := makeTestPosts(3, time.Now())

	page := buildPostPage(posts, 5)
	assert.Len(t, page.Items, 3)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextCursor)
}

func TestBuildPostPageTruncates(t *testing.T) {
	posts := makeTestPosts(6, time.Now())

	page := buildPostPage(posts, 5)
	assert.Len(t, page.Items, 5)
	assert.True(t, page.HasMore)
	if page.NextCursor == nil {
		t.Fatal("expected a next cursor on a truncated page")
	}

	// The cursor must point at the last returned item, not the probe row.
	decoded, err := DecodeCursor(*page.NextCursor)
	assert.NoError(t, err)
	last := page.Items[4]
	assert.Equal(t, last.ID.String(), decoded.TieBreakID)
	assert.True(t, last.CreatedAt.Equal(decoded.SortValue))
}
