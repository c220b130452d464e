package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sociallift/pagereply/internal/domain"
	"github.com/sociallift/pagereply/internal/storage/inmemory"
)

func seedComment(t *testing.T, store *inmemory.Store, id, postID string, parentID *string, userID string, at time.Time) *domain.Comment {
	t.Helper()
	c := &domain.Comment{
		ID:        id,
		PageID:    "page-1",
		PostID:    postID,
		ParentID:  parentID,
		UserID:    userID,
		UserName:  "User " + userID,
		Text:      "text of " + id,
		Platform:  domain.PlatformFacebook,
		Sentiment: domain.SentimentNeutral,
		Status:    domain.StatusApproved,
		CreatedAt: at,
	}
	require.NoError(t, store.CreateComment(context.Background(), c))
	return c
}

func ids(thread []*domain.Comment) []string {
	out := make([]string, len(thread))
	for i, c := range thread {
		out[i] = c.ID
	}
	return out
}

func TestBuildThread_ResolvesRootFromReply(t *testing.T) {
	store := inmemory.New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	root := seedComment(t, store, "c-root", "post-1", nil, "user-1", base)
	rootID := root.ID
	seedComment(t, store, "c-reply", "post-1", &rootID, "page-1", base.Add(time.Minute))
	replyTo := seedComment(t, store, "c-reply-2", "post-1", &rootID, "user-2", base.Add(2*time.Minute))

	// Unrelated top-level comment on the same post stays out.
	seedComment(t, store, "c-other", "post-1", nil, "user-3", base.Add(30*time.Second))

	thread, err := BuildThread(context.Background(), store, replyTo)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-root", "c-reply", "c-reply-2"}, ids(thread))

	// Starting from the root yields the same thread.
	thread, err = BuildThread(context.Background(), store, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-root", "c-reply", "c-reply-2"}, ids(thread))
}

func TestBuildThread_TopLevelCommentAlone(t *testing.T) {
	store := inmemory.New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	c := seedComment(t, store, "c-1", "post-1", nil, "user-1", base)
	seedComment(t, store, "c-2", "post-1", nil, "user-2", base.Add(time.Minute))

	thread, err := BuildThread(context.Background(), store, c)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-1"}, ids(thread))
}

func TestBuildThread_MissingRootFallsBackToComment(t *testing.T) {
	store := inmemory.New()
	gone := "c-vanished"
	orphan := &domain.Comment{
		ID:       "c-orphan",
		PageID:   "page-1",
		PostID:   "post-1",
		ParentID: &gone,
		UserID:   "user-1",
		Text:     "hello?",
	}

	thread, err := BuildThread(context.Background(), store, orphan)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, "c-orphan", thread[0].ID)
}

func TestBuildThread_DeepNestingOrdered(t *testing.T) {
	store := inmemory.New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	a := seedComment(t, store, "c-a", "post-1", nil, "user-1", base)
	aID := a.ID
	b := seedComment(t, store, "c-b", "post-1", &aID, "page-1", base.Add(time.Minute))
	bID := b.ID
	c := seedComment(t, store, "c-c", "post-1", &bID, "user-1", base.Add(2*time.Minute))

	thread, err := BuildThread(context.Background(), store, c)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-a", "c-b", "c-c"}, ids(thread))
}

func TestTurns_RolesAndPrefixes(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	thread := []*domain.Comment{
		{ID: "c-1", UserID: "user-1", UserName: "Alice", Text: "where is my order?", CreatedAt: base},
		{ID: "c-2", UserID: "page-1", UserName: "Acme Store", Text: "checking now!", CreatedAt: base.Add(time.Minute)},
		{ID: "c-3", UserID: "user-1", UserName: "Alice", Text: "thanks", CreatedAt: base.Add(2 * time.Minute)},
	}

	turns := Turns("page-1", "Acme Store", thread)
	require.Len(t, turns, 4)

	assert.Equal(t, RoleSystem, turns[0].Role)
	assert.Contains(t, turns[0].Content, `"Acme Store"`)

	assert.Equal(t, RoleUser, turns[1].Role)
	assert.Equal(t, "Alice: where is my order?", turns[1].Content)

	assert.Equal(t, RoleAssistant, turns[2].Role)
	assert.Equal(t, "Assistant: checking now!", turns[2].Content)

	assert.Equal(t, RoleUser, turns[3].Role)
}
