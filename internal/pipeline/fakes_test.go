package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/sociallift/pagereply/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClassifier struct {
	sentiment domain.Sentiment
	err       error
	calls     int
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (domain.Sentiment, error) {
	f.calls++
	return f.sentiment, f.err
}

type fakeGenerator struct {
	reply string
	err   error
	turns []Turn
}

func (f *fakeGenerator) Generate(ctx context.Context, turns []Turn) (string, error) {
	f.turns = turns
	return f.reply, f.err
}

type fakePoster struct {
	id    string
	err   error
	calls int

	lastCommentID string
	lastMessage   string
	lastToken     string
}

func (f *fakePoster) PostComment(ctx context.Context, commentID, message, accessToken string) (string, error) {
	f.calls++
	f.lastCommentID = commentID
	f.lastMessage = message
	f.lastToken = accessToken
	return f.id, f.err
}

type fakeEnqueuer struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeEnqueuer) Enqueue(commentID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, commentID)
}

func (f *fakeEnqueuer) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...)
}

type fakeNotifier struct {
	held []*domain.Comment
}

func (f *fakeNotifier) CommentHeld(comment *domain.Comment) {
	f.held = append(f.held, comment)
}
