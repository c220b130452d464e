// replyctl is the operator CLI: it talks straight to the database to flip
// page policy, inspect the review queue and resolve held comments. Approvals
// made here are picked up by the server's dispatch sweep.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sociallift/pagereply/internal/config"
	"github.com/sociallift/pagereply/internal/domain"
	"github.com/sociallift/pagereply/internal/storage"
	"github.com/sociallift/pagereply/internal/storage/postgres"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func openStore() (storage.Storage, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Database.DSN == "" {
		return nil, errors.New("DATABASE_URL must be set")
	}
	return postgres.New(cfg.Database.DSN)
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "replyctl",
		Short:         "Administer the auto-reply service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		toggleAutoReplyCmd(),
		toggleNegativeCmd(),
		listPendingCmd(),
		approveCmd(),
		rejectCmd(),
		installPageCmd(),
	)
	return root
}

func toggleAutoReplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-auto-reply <page-id>",
		Short: "Toggle auto-reply for a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pageID := args[0]

			page, err := store.GetPage(ctx, pageID)
			if err != nil {
				return fmt.Errorf("load page %s: %w", pageID, err)
			}
			enabled := !page.AutoReplyEnabled
			if err := store.SetAutoReply(ctx, pageID, enabled); err != nil {
				return err
			}

			state := "disabled"
			if enabled {
				state = "enabled"
			}
			fmt.Printf("Auto-reply for page %s is now %s\n", pageID, state)
			return nil
		},
	}
}

func toggleNegativeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-negative <page-id>",
		Short: "Toggle auto-reply to negative comments for a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pageID := args[0]

			page, err := store.GetPage(ctx, pageID)
			if err != nil {
				return fmt.Errorf("load page %s: %w", pageID, err)
			}
			enabled := !page.AutoReplyNegative
			if err := store.SetAutoReplyNegative(ctx, pageID, enabled); err != nil {
				return err
			}

			state := "disabled"
			if enabled {
				state = "enabled"
			}
			fmt.Printf("Auto-reply to negative comments for page %s is now %s\n", pageID, state)
			return nil
		},
	}
}

func listPendingCmd() *cobra.Command {
	var pageID string
	cmd := &cobra.Command{
		Use:   "list-pending",
		Short: "List comments waiting for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}

			comments, err := store.ListPendingReview(context.Background(), pageID)
			if err != nil {
				return err
			}
			if len(comments) == 0 {
				fmt.Println("No comments pending review.")
				return nil
			}

			for _, c := range comments {
				fmt.Printf("%s  [%s]  %s  %s: %s\n",
					c.CreatedAt.Format("2006-01-02 15:04"), c.Sentiment, c.ID, c.UserName, c.Text)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pageID, "page", "", "only show comments for this page id")
	return cmd
}

func approveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <comment-id>",
		Short: "Approve a held comment (the server's sweep will dispatch it)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}

			err = store.SetCommentStatus(context.Background(), args[0],
				domain.StatusPendingReview, domain.StatusApproved)
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("comment %s not found or not pending review", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Printf("Comment %s approved\n", args[0])
			return nil
		},
	}
}

func rejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <comment-id>",
		Short: "Reject a held comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}

			err = store.SetCommentStatus(context.Background(), args[0],
				domain.StatusPendingReview, domain.StatusRejected)
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("comment %s not found or not pending review", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Printf("Comment %s rejected\n", args[0])
			return nil
		},
	}
}

func installPageCmd() *cobra.Command {
	var pageName string
	cmd := &cobra.Command{
		Use:   "install-page <page-id> <access-token>",
		Short: "Store a page access token and seed its policy row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pageID := args[0]

			if err := store.UpsertPageToken(ctx, &domain.PageToken{
				PageID:      pageID,
				PageName:    pageName,
				AccessToken: args[1],
			}); err != nil {
				return err
			}
			if err := store.EnsurePage(ctx, pageID); err != nil {
				return err
			}

			fmt.Printf("Page %s installed\n", pageID)
			return nil
		},
	}
	cmd.Flags().StringVar(&pageName, "name", "", "display name used in reply prompts")
	return cmd
}
