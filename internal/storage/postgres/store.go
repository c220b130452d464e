package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sociallift/pagereply/internal/domain"
	"github.com/sociallift/pagereply/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store implements the Storage interface using PostgreSQL.
type Store struct {
	db *gorm.DB
}

// New opens a PostgreSQL connection and migrates the schema.
func New(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&domain.Page{},
		&domain.PageToken{},
		&domain.Tenant{},
		&domain.Post{},
		&domain.Comment{},
		&domain.Mention{},
		&domain.Message{},
		&domain.Reply{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	return err
}

// === Page Methods ===

func (s *Store) EnsurePage(ctx context.Context, pageID string) error {
	page := &domain.Page{ID: pageID, AutoReplyEnabled: true}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(page).Error
}

func (s *Store) GetPage(ctx context.Context, pageID string) (*domain.Page, error) {
	var page domain.Page
	if err := s.db.WithContext(ctx).First(&page, "id = ?", pageID).Error; err != nil {
		return nil, translateErr(err)
	}
	return &page, nil
}

func (s *Store) SetAutoReply(ctx context.Context, pageID string, enabled bool) error {
	res := s.db.WithContext(ctx).
		Model(&domain.Page{}).
		Where("id = ?", pageID).
		Update("auto_reply_enabled", enabled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) SetAutoReplyNegative(ctx context.Context, pageID string, enabled bool) error {
	res := s.db.WithContext(ctx).
		Model(&domain.Page{}).
		Where("id = ?", pageID).
		Update("auto_reply_negative", enabled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// === Post Methods ===

// CreatePost inserts a post, ignoring conflicts on the platform-provided id.
// A stub created for an early comment is therefore never overwritten by the
// real post event, and vice versa.
func (s *Store) CreatePost(ctx context.Context, post *domain.Post) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(post).Error
}

func (s *Store) PostExists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) error {
	if strings.TrimSpace(comment.Text) == "" {
		return errors.New("comment text cannot be empty")
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(comment).Error
}

func (s *Store) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	var comment domain.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &comment, nil
}

func (s *Store) CommentExists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&domain.Comment{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) CommentsByPost(ctx context.Context, postID string) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

// SetCommentStatus moves a comment from one status to another. The update is
// guarded by the expected current status; ErrNotFound means the comment does
// not exist or was not in that state.
func (s *Store) SetCommentStatus(ctx context.Context, id string, from, to domain.Status) error {
	res := s.db.WithContext(ctx).
		Model(&domain.Comment{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// MarkReplied commits the reply outcome in one atomic update, guarded on
// replied = false. A second commit for the same comment is a no-op.
func (s *Store) MarkReplied(ctx context.Context, id, replyID string) error {
	return s.db.WithContext(ctx).
		Model(&domain.Comment{}).
		Where("id = ? AND replied = ?", id, false).
		Updates(map[string]any{"replied": true, "reply_id": replyID}).Error
}

func (s *Store) ListPendingReview(ctx context.Context, pageID string) ([]*domain.Comment, error) {
	query := s.db.WithContext(ctx).
		Where("status = ?", domain.StatusPendingReview).
		Order("created_at ASC")
	if pageID != "" {
		query = query.Where("page_id = ?", pageID)
	}

	var comments []*domain.Comment
	err := query.Find(&comments).Error
	return comments, err
}

func (s *Store) ListUnrepliedApproved(ctx context.Context) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	err := s.db.WithContext(ctx).
		Where("status = ? AND replied = ?", domain.StatusApproved, false).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

// === Event Records ===

func (s *Store) CreateMention(ctx context.Context, mention *domain.Mention) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(mention).Error
}

func (s *Store) CreateMessage(ctx context.Context, message *domain.Message) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(message).Error
}

func (s *Store) CreateReply(ctx context.Context, reply *domain.Reply) error {
	return s.db.WithContext(ctx).Create(reply).Error
}

// === Page Tokens ===

// UpsertPageToken is the only last-write-wins write: re-installing a page
// replaces its token.
func (s *Store) UpsertPageToken(ctx context.Context, token *domain.PageToken) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "page_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"tenant_id", "page_name", "access_token", "updated_at"}),
		}).
		Create(token).Error
}

func (s *Store) GetPageToken(ctx context.Context, pageID string) (*domain.PageToken, error) {
	var token domain.PageToken
	if err := s.db.WithContext(ctx).First(&token, "page_id = ?", pageID).Error; err != nil {
		return nil, translateErr(err)
	}
	return &token, nil
}

// === Tenants ===

func (s *Store) EnsureTenant(ctx context.Context, userID string) error {
	tenant := &domain.Tenant{UserID: userID}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(tenant).Error
}

func (s *Store) GetTenant(ctx context.Context, userID string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	if err := s.db.WithContext(ctx).First(&tenant, "user_id = ?", userID).Error; err != nil {
		return nil, translateErr(err)
	}
	return &tenant, nil
}
