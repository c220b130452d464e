package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sociallift/pagereply/internal/domain"
	"github.com/sociallift/pagereply/internal/storage/inmemory"
)

type dispatchFixture struct {
	store     *inmemory.Store
	generator *fakeGenerator
	poster    *fakePoster
	d         *Dispatcher
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	store := inmemory.New()
	ctx := context.Background()

	require.NoError(t, store.EnsurePage(ctx, "page-1"))
	require.NoError(t, store.UpsertPageToken(ctx, &domain.PageToken{
		PageID:      "page-1",
		PageName:    "Acme Store",
		AccessToken: "token-abc",
	}))

	generator := &fakeGenerator{reply: "thanks for reaching out!"}
	poster := &fakePoster{id: "ext-reply-1"}
	return &dispatchFixture{
		store:     store,
		generator: generator,
		poster:    poster,
		d:         NewDispatcher(store, generator, poster, discardLogger()),
	}
}

func (f *dispatchFixture) seed(t *testing.T, c *domain.Comment) {
	t.Helper()
	if c.PageID == "" {
		c.PageID = "page-1"
	}
	if c.PostID == "" {
		c.PostID = "post-1"
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	require.NoError(t, f.store.CreateComment(context.Background(), c))
}

func TestDispatcher_HappyPath(t *testing.T) {
	f := newDispatchFixture(t)
	f.seed(t, &domain.Comment{
		ID: "c-1", UserID: "user-1", UserName: "Alice",
		Text: "where is my order?", Status: domain.StatusApproved,
	})

	require.NoError(t, f.d.DispatchIfApproved(context.Background(), "c-1"))

	// The posted text is addressed to the commenter.
	assert.Equal(t, "c-1", f.poster.lastCommentID)
	assert.Equal(t, "Alice, thanks for reaching out!", f.poster.lastMessage)
	assert.Equal(t, "token-abc", f.poster.lastToken)

	got, err := f.store.GetComment(context.Background(), "c-1")
	require.NoError(t, err)
	assert.True(t, got.Replied)
	require.NotNil(t, got.ReplyID)
	assert.Equal(t, "ext-reply-1", *got.ReplyID)

	trail := f.store.RepliesByComment("c-1")
	require.Len(t, trail, 1)
	assert.Equal(t, "Alice, thanks for reaching out!", trail[0].Text)
}

func TestDispatcher_PosterErrorLeavesRetryable(t *testing.T) {
	f := newDispatchFixture(t)
	f.poster.err = errors.New("graph api 500")
	f.seed(t, &domain.Comment{
		ID: "c-1", UserID: "user-1", UserName: "Alice",
		Text: "hello", Status: domain.StatusApproved,
	})

	err := f.d.DispatchIfApproved(context.Background(), "c-1")
	require.Error(t, err)

	got, _ := f.store.GetComment(context.Background(), "c-1")
	assert.False(t, got.Replied)
	assert.Nil(t, got.ReplyID)
	// The generated text is on file even though the post failed.
	assert.Len(t, f.store.RepliesByComment("c-1"), 1)
}

func TestDispatcher_EmptyExternalIDIsFailure(t *testing.T) {
	f := newDispatchFixture(t)
	f.poster.id = ""
	f.seed(t, &domain.Comment{
		ID: "c-1", UserID: "user-1", UserName: "Alice",
		Text: "hello", Status: domain.StatusApproved,
	})

	err := f.d.DispatchIfApproved(context.Background(), "c-1")
	require.Error(t, err)

	got, _ := f.store.GetComment(context.Background(), "c-1")
	assert.False(t, got.Replied)
}

func TestDispatcher_SkipsIneligible(t *testing.T) {
	f := newDispatchFixture(t)

	f.seed(t, &domain.Comment{
		ID: "c-held", UserID: "user-1", UserName: "Alice",
		Text: "bad", Status: domain.StatusPendingReview,
	})
	f.seed(t, &domain.Comment{
		ID: "c-self", UserID: "page-1", UserName: "Acme Store",
		Text: "our own comment", Status: domain.StatusApproved,
	})
	f.seed(t, &domain.Comment{
		ID: "c-done", UserID: "user-2", UserName: "Bob",
		Text: "hi", Status: domain.StatusApproved,
	})
	require.NoError(t, f.store.MarkReplied(context.Background(), "c-done", "ext-old"))

	for _, id := range []string{"c-held", "c-self", "c-done", "c-missing"} {
		require.NoError(t, f.d.DispatchIfApproved(context.Background(), id), id)
	}
	assert.Zero(t, f.poster.calls)
}

func TestDispatcher_MissingTokenSkipsSilently(t *testing.T) {
	store := inmemory.New()
	ctx := context.Background()
	require.NoError(t, store.EnsurePage(ctx, "page-2"))

	poster := &fakePoster{id: "ext-1"}
	d := NewDispatcher(store, &fakeGenerator{reply: "hi"}, poster, discardLogger())

	require.NoError(t, store.CreateComment(ctx, &domain.Comment{
		ID: "c-1", PageID: "page-2", PostID: "post-1",
		UserID: "user-1", UserName: "Alice", Text: "hello",
		Status: domain.StatusApproved,
	}))

	require.NoError(t, d.DispatchIfApproved(ctx, "c-1"))
	assert.Zero(t, poster.calls)

	got, _ := store.GetComment(ctx, "c-1")
	assert.False(t, got.Replied)
}

func TestDispatcher_GeneratorSeesFullThread(t *testing.T) {
	f := newDispatchFixture(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	f.seed(t, &domain.Comment{
		ID: "c-root", UserID: "user-1", UserName: "Alice",
		Text: "is this in stock?", Status: domain.StatusApproved, CreatedAt: base,
	})
	require.NoError(t, f.store.MarkReplied(context.Background(), "c-root", "ext-0"))

	rootID := "c-root"
	f.seed(t, &domain.Comment{
		ID: "c-followup", ParentID: &rootID, UserID: "user-1", UserName: "Alice",
		Text: "any update?", Status: domain.StatusApproved, CreatedAt: base.Add(time.Hour),
	})

	require.NoError(t, f.d.DispatchIfApproved(context.Background(), "c-followup"))

	// system + root + followup
	require.Len(t, f.generator.turns, 3)
	assert.Equal(t, RoleSystem, f.generator.turns[0].Role)
	assert.Contains(t, f.generator.turns[0].Content, `"Acme Store"`)
	assert.Equal(t, "Alice: is this in stock?", f.generator.turns[1].Content)
	assert.Equal(t, "Alice: any update?", f.generator.turns[2].Content)
}

func TestDispatcher_PageNameFallsBackToID(t *testing.T) {
	f := newDispatchFixture(t)
	require.NoError(t, f.store.UpsertPageToken(context.Background(), &domain.PageToken{
		PageID: "page-1", AccessToken: "token-abc",
	}))
	f.seed(t, &domain.Comment{
		ID: "c-1", UserID: "user-1", UserName: "Alice",
		Text: "hi", Status: domain.StatusApproved,
	})

	require.NoError(t, f.d.DispatchIfApproved(context.Background(), "c-1"))
	assert.Contains(t, f.generator.turns[0].Content, `"page-1"`)
}
