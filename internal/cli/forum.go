package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func forumCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forum",
		Short: "Read and write community posts",
	}

	var title, content string
	postCmd := &cobra.Command{
		Use:   "post",
		Short: "Publish a post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			posts, err := app.Forum.CreatePost(cmd.Context(), title, content)
			if err != nil {
				return err
			}
			printPosts(cmd.OutOrStdout(), posts)
			return nil
		},
	}
	postCmd.Flags().StringVar(&title, "title", "", "post title")
	postCmd.Flags().StringVar(&content, "content", "", "post body")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List posts, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				posts, err := app.Forum.Posts(cmd.Context())
				if err != nil {
					return err
				}
				printPosts(cmd.OutOrStdout(), posts)
				return nil
			},
		},
		postCmd,
		&cobra.Command{
			Use:   "upvote <post-id>",
			Short: "Upvote a post",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				posts, err := app.Forum.Upvote(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printPosts(cmd.OutOrStdout(), posts)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <post-id>",
			Short: "Delete one of your posts and its comments",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				posts, err := app.Forum.DeletePost(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Post deleted.")
				printPosts(cmd.OutOrStdout(), posts)
				return nil
			},
		},
		&cobra.Command{
			Use:   "comments <post-id>",
			Short: "Show a post's comments",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				comments, err := app.Forum.Comments(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printComments(cmd.OutOrStdout(), comments)
				return nil
			},
		},
		&cobra.Command{
			Use:   "comment <post-id> <text>",
			Short: "Comment on a post",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				comments, err := app.Forum.AddComment(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				printComments(cmd.OutOrStdout(), comments)
				return nil
			},
		},
		&cobra.Command{
			Use:   "uncomment <post-id> <comment-id>",
			Short: "Delete one of your comments",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				comments, err := app.Forum.DeleteComment(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				printComments(cmd.OutOrStdout(), comments)
				return nil
			},
		},
	)
	return cmd
}
