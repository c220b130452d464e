package inmemory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sociallift/pagereply/internal/domain"
	"github.com/sociallift/pagereply/internal/storage"
	"github.com/google/uuid"
)

// Store implements the Storage interface in memory. It is used by the unit
// tests and by the dev server when no database DSN is configured. Rows are
// copied on the way in and out so callers never share mutable state.
type Store struct {
	mu       sync.RWMutex
	pages    map[string]*domain.Page
	tokens   map[string]*domain.PageToken
	tenants  map[string]*domain.Tenant // keyed by user id
	posts    map[string]*domain.Post
	comments map[string]*domain.Comment
	mentions map[string]*domain.Mention
	messages map[string]*domain.Message
	replies  map[string]*domain.Reply

	commentsByPost map[string][]string // map[postID][]commentID, insertion order
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		pages:          make(map[string]*domain.Page),
		tokens:         make(map[string]*domain.PageToken),
		tenants:        make(map[string]*domain.Tenant),
		posts:          make(map[string]*domain.Post),
		comments:       make(map[string]*domain.Comment),
		mentions:       make(map[string]*domain.Mention),
		messages:       make(map[string]*domain.Message),
		replies:        make(map[string]*domain.Reply),
		commentsByPost: make(map[string][]string),
	}
}

// === Page Methods ===

func (s *Store) EnsurePage(ctx context.Context, pageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pages[pageID]; ok {
		return nil
	}
	s.pages[pageID] = &domain.Page{
		ID:               pageID,
		AutoReplyEnabled: true,
		CreatedAt:        time.Now().UTC(),
	}
	return nil
}

func (s *Store) GetPage(ctx context.Context, pageID string) (*domain.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page, ok := s.pages[pageID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *page
	return &cp, nil
}

func (s *Store) SetAutoReply(ctx context.Context, pageID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	page, ok := s.pages[pageID]
	if !ok {
		return storage.ErrNotFound
	}
	page.AutoReplyEnabled = enabled
	return nil
}

func (s *Store) SetAutoReplyNegative(ctx context.Context, pageID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	page, ok := s.pages[pageID]
	if !ok {
		return storage.ErrNotFound
	}
	page.AutoReplyNegative = enabled
	return nil
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Conflict-ignore: the first write for an id wins.
	if _, ok := s.posts[post.ID]; ok {
		return nil
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	cp := *post
	s.posts[post.ID] = &cp
	return nil
}

func (s *Store) PostExists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.posts[id]
	return ok, nil
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(comment.Text) == "" {
		return errors.New("comment text cannot be empty")
	}
	if _, ok := s.comments[comment.ID]; ok {
		return nil
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	cp := *comment
	s.comments[comment.ID] = &cp
	s.commentsByPost[comment.PostID] = append(s.commentsByPost[comment.PostID], comment.ID)
	return nil
}

func (s *Store) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *comment
	return &cp, nil
}

func (s *Store) CommentExists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.comments[id]
	return ok, nil
}

func (s *Store) CommentsByPost(ctx context.Context, postID string) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.commentsByPost[postID]
	comments := make([]*domain.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.comments[id]; ok {
			cp := *c
			comments = append(comments, &cp)
		}
	}
	sortComments(comments)
	return comments, nil
}

func (s *Store) SetCommentStatus(ctx context.Context, id string, from, to domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[id]
	if !ok || comment.Status != from {
		return storage.ErrNotFound
	}
	comment.Status = to
	return nil
}

func (s *Store) MarkReplied(ctx context.Context, id, replyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[id]
	if !ok || comment.Replied {
		return nil
	}
	comment.Replied = true
	comment.ReplyID = &replyID
	return nil
}

func (s *Store) ListPendingReview(ctx context.Context, pageID string) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var comments []*domain.Comment
	for _, c := range s.comments {
		if c.Status != domain.StatusPendingReview {
			continue
		}
		if pageID != "" && c.PageID != pageID {
			continue
		}
		cp := *c
		comments = append(comments, &cp)
	}
	sortComments(comments)
	return comments, nil
}

func (s *Store) ListUnrepliedApproved(ctx context.Context) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var comments []*domain.Comment
	for _, c := range s.comments {
		if c.Status == domain.StatusApproved && !c.Replied {
			cp := *c
			comments = append(comments, &cp)
		}
	}
	sortComments(comments)
	return comments, nil
}

// sortComments orders by creation time ascending, id as tie-breaker.
func sortComments(comments []*domain.Comment) {
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
}

// === Event Records ===

func (s *Store) CreateMention(ctx context.Context, mention *domain.Mention) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mentions[mention.ID]; ok {
		return nil
	}
	cp := *mention
	s.mentions[mention.ID] = &cp
	return nil
}

func (s *Store) CreateMessage(ctx context.Context, message *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[message.ID]; ok {
		return nil
	}
	cp := *message
	s.messages[message.ID] = &cp
	return nil
}

func (s *Store) CreateReply(ctx context.Context, reply *domain.Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reply.ID == "" {
		reply.ID = uuid.NewString()
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now().UTC()
	}
	cp := *reply
	s.replies[reply.ID] = &cp
	return nil
}

// RepliesByComment returns the stored reply audit trail for a comment,
// oldest first. Used by tests; not part of the Storage interface.
func (s *Store) RepliesByComment(commentID string) []*domain.Reply {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var replies []*domain.Reply
	for _, r := range s.replies {
		if r.CommentID == commentID {
			cp := *r
			replies = append(replies, &cp)
		}
	}
	sort.Slice(replies, func(i, j int) bool {
		return replies[i].CreatedAt.Before(replies[j].CreatedAt)
	})
	return replies
}

// === Page Tokens ===

func (s *Store) UpsertPageToken(ctx context.Context, token *domain.PageToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *token
	cp.UpdatedAt = time.Now().UTC()
	s.tokens[token.PageID] = &cp
	return nil
}

func (s *Store) GetPageToken(ctx context.Context, pageID string) (*domain.PageToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[pageID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *token
	return &cp, nil
}

// === Tenants ===

func (s *Store) EnsureTenant(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[userID]; ok {
		return nil
	}
	s.tenants[userID] = &domain.Tenant{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (s *Store) GetTenant(ctx context.Context, userID string) (*domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenant, ok := s.tenants[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *tenant
	return &cp, nil
}
