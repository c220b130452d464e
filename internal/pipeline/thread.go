package pipeline

import (
	"context"
	"fmt"

	"github.com/sociallift/pagereply/internal/domain"
	"github.com/sociallift/pagereply/internal/storage"
)

// BuildThread reconstructs the conversation the given comment belongs to:
// the thread root (the comment itself if top-level, else its parent) and
// every stored comment in the same post whose ancestry traces back to that
// root, ordered by creation time ascending.
//
// All comments for the post are loaded once and traversed in memory, so the
// result is a pure function of the stored rows and can be recomputed at any
// time.
func BuildThread(ctx context.Context, store storage.Storage, comment *domain.Comment) ([]*domain.Comment, error) {
	rootID := comment.ID
	if comment.ParentID != nil {
		rootID = *comment.ParentID
	}

	all, err := store.CommentsByPost(ctx, comment.PostID)
	if err != nil {
		return nil, fmt.Errorf("load comments for post %s: %w", comment.PostID, err)
	}

	byID := make(map[string]*domain.Comment, len(all))
	children := make(map[string][]string, len(all))
	for _, c := range all {
		byID[c.ID] = c
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}

	if _, ok := byID[rootID]; !ok {
		// The root is gone from the store; fall back to the comment alone.
		return []*domain.Comment{comment}, nil
	}

	// Collect the root's subtree. The store returns rows ordered by creation
	// time, and children lists preserve that order, so a stack walk plus the
	// input order gives a stable result.
	var thread []*domain.Comment
	stack := []string{rootID}
	seen := make(map[string]bool)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		thread = append(thread, byID[id])
		stack = append(stack, children[id]...)
	}

	sortByCreatedAt(thread)
	return thread, nil
}

func sortByCreatedAt(comments []*domain.Comment) {
	// Insertion sort: threads are short and mostly ordered already.
	for i := 1; i < len(comments); i++ {
		for j := i; j > 0 && comments[j].CreatedAt.Before(comments[j-1].CreatedAt); j-- {
			comments[j], comments[j-1] = comments[j-1], comments[j]
		}
	}
}

// Turns converts a reconstructed thread into conversation turns for the
// generator. The page speaks as the assistant; everyone else is a user, and
// each turn's content is prefixed with the speaker's display name so the
// model can track who said what.
func Turns(pageID, pageName string, thread []*domain.Comment) []Turn {
	turns := make([]Turn, 0, len(thread)+1)
	turns = append(turns, Turn{
		Role: RoleSystem,
		Content: fmt.Sprintf(
			"You are an AI-powered customer support assistant for the %q Facebook Page. "+
				"Your goal is to respond in a friendly, helpful, and concise manner, using the full "+
				"conversation context to answer users' questions accurately. "+
				"Reply to the customer in the same language they used.", pageName),
	})

	for _, c := range thread {
		role := RoleUser
		author := c.UserName
		if c.UserID == pageID {
			role = RoleAssistant
			author = "Assistant"
		}
		turns = append(turns, Turn{
			Role:    role,
			Content: fmt.Sprintf("%s: %s", author, c.Text),
		})
	}
	return turns
}
