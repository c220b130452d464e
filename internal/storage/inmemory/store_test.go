package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sociallift/pagereply/internal/domain"
	"github.com/sociallift/pagereply/internal/storage"
)

func newComment(id, postID string, status domain.Status) *domain.Comment {
	return &domain.Comment{
		ID:        id,
		PageID:    "page-1",
		PostID:    postID,
		UserID:    "user-1",
		UserName:  "Alice",
		Text:      "hello",
		Platform:  domain.PlatformFacebook,
		Sentiment: domain.SentimentNeutral,
		Status:    status,
	}
}

func TestStore_EnsurePageDefaults(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.EnsurePage(ctx, "page-1"))

	page, err := store.GetPage(ctx, "page-1")
	require.NoError(t, err)
	assert.True(t, page.AutoReplyEnabled)
	assert.False(t, page.AutoReplyNegative)

	// A second ensure must not reset a toggled policy.
	require.NoError(t, store.SetAutoReply(ctx, "page-1", false))
	require.NoError(t, store.EnsurePage(ctx, "page-1"))

	page, err = store.GetPage(ctx, "page-1")
	require.NoError(t, err)
	assert.False(t, page.AutoReplyEnabled)
}

func TestStore_SetAutoReplyUnknownPage(t *testing.T) {
	store := New()

	err := store.SetAutoReply(context.Background(), "nope", true)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_CreatePostConflictIgnore(t *testing.T) {
	store := New()
	ctx := context.Background()

	stub := &domain.Post{ID: "post-1", PageID: "page-1", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.CreatePost(ctx, stub))

	msg := "full text"
	require.NoError(t, store.CreatePost(ctx, &domain.Post{
		ID:      "post-1",
		PageID:  "page-1",
		Message: &msg,
	}))

	exists, err := store.PostExists(ctx, "post-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_CreateCommentEmptyText(t *testing.T) {
	store := New()

	c := newComment("c-1", "post-1", domain.StatusApproved)
	c.Text = "   "
	err := store.CreateComment(context.Background(), c)
	assert.Error(t, err)
}

func TestStore_CreateCommentRedeliveryKeepsFirstWrite(t *testing.T) {
	store := New()
	ctx := context.Background()

	first := newComment("c-1", "post-1", domain.StatusPendingReview)
	require.NoError(t, store.CreateComment(ctx, first))

	dup := newComment("c-1", "post-1", domain.StatusApproved)
	dup.Text = "edited on redelivery"
	require.NoError(t, store.CreateComment(ctx, dup))

	got, err := store.GetComment(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, domain.StatusPendingReview, got.Status)
}

func TestStore_CommentsByPostOrdering(t *testing.T) {
	store := New()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, tc := range []struct {
		id     string
		offset time.Duration
	}{
		{"c-b", 2 * time.Minute},
		{"c-a", time.Minute},
		{"c-c", 2 * time.Minute}, // same instant as c-b, id breaks the tie
	} {
		c := newComment(tc.id, "post-1", domain.StatusApproved)
		c.CreatedAt = base.Add(tc.offset)
		require.NoError(t, store.CreateComment(ctx, c))
	}

	comments, err := store.CommentsByPost(ctx, "post-1")
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "c-a", comments[0].ID)
	assert.Equal(t, "c-b", comments[1].ID)
	assert.Equal(t, "c-c", comments[2].ID)
}

func TestStore_SetCommentStatusGuarded(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.CreateComment(ctx, newComment("c-1", "post-1", domain.StatusPendingReview)))

	require.NoError(t, store.SetCommentStatus(ctx, "c-1", domain.StatusPendingReview, domain.StatusApproved))

	// Second transition from the same state must fail: the row moved on.
	err := store.SetCommentStatus(ctx, "c-1", domain.StatusPendingReview, domain.StatusRejected)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, err := store.GetComment(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)
}

func TestStore_MarkRepliedIdempotent(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.CreateComment(ctx, newComment("c-1", "post-1", domain.StatusApproved)))

	require.NoError(t, store.MarkReplied(ctx, "c-1", "reply-1"))
	// Losing a race to another worker is not an error, and the first
	// reply id sticks.
	require.NoError(t, store.MarkReplied(ctx, "c-1", "reply-2"))

	got, err := store.GetComment(ctx, "c-1")
	require.NoError(t, err)
	assert.True(t, got.Replied)
	require.NotNil(t, got.ReplyID)
	assert.Equal(t, "reply-1", *got.ReplyID)
}

func TestStore_ListPendingReviewFiltersByPage(t *testing.T) {
	store := New()
	ctx := context.Background()

	held := newComment("c-1", "post-1", domain.StatusPendingReview)
	require.NoError(t, store.CreateComment(ctx, held))

	other := newComment("c-2", "post-2", domain.StatusPendingReview)
	other.PageID = "page-2"
	require.NoError(t, store.CreateComment(ctx, other))

	approved := newComment("c-3", "post-1", domain.StatusApproved)
	require.NoError(t, store.CreateComment(ctx, approved))

	all, err := store.ListPendingReview(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := store.ListPendingReview(ctx, "page-1")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "c-1", scoped[0].ID)
}

func TestStore_ListUnrepliedApproved(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.CreateComment(ctx, newComment("c-1", "post-1", domain.StatusApproved)))
	require.NoError(t, store.CreateComment(ctx, newComment("c-2", "post-1", domain.StatusPendingReview)))

	done := newComment("c-3", "post-1", domain.StatusApproved)
	require.NoError(t, store.CreateComment(ctx, done))
	require.NoError(t, store.MarkReplied(ctx, "c-3", "reply-x"))

	list, err := store.ListUnrepliedApproved(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c-1", list[0].ID)
}

func TestStore_UpsertPageTokenLastWriteWins(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.UpsertPageToken(ctx, &domain.PageToken{
		PageID: "page-1", TenantID: "t-1", PageName: "Old Name", AccessToken: "tok-1",
	}))
	require.NoError(t, store.UpsertPageToken(ctx, &domain.PageToken{
		PageID: "page-1", TenantID: "t-1", PageName: "New Name", AccessToken: "tok-2",
	}))

	tok, err := store.GetPageToken(ctx, "page-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok.AccessToken)
	assert.Equal(t, "New Name", tok.PageName)
}

func TestStore_EnsureTenant(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.EnsureTenant(ctx, "user-1"))
	first, err := store.GetTenant(ctx, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	require.NoError(t, store.EnsureTenant(ctx, "user-1"))
	second, err := store.GetTenant(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = store.GetTenant(ctx, "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_CreateReplyGeneratesID(t *testing.T) {
	store := New()
	ctx := context.Background()

	reply := &domain.Reply{CommentID: "c-1", Text: "generated"}
	require.NoError(t, store.CreateReply(ctx, reply))
	require.NoError(t, store.CreateReply(ctx, &domain.Reply{CommentID: "c-1", Text: "retry"}))

	trail := store.RepliesByComment("c-1")
	require.Len(t, trail, 2)
	for _, r := range trail {
		assert.NotEmpty(t, r.ID)
	}
}
