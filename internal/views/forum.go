package views

import (
	"context"
	"net/http"
	"strings"

	"safeguard-go/internal/apperr"
	"safeguard-go/internal/backend"
	"safeguard-go/internal/models"
)

type ForumView struct {
	forum backend.Forum
	users CurrentUser
}

func NewForumView(forum backend.Forum, users CurrentUser) *ForumView {
	return &ForumView{forum: forum, users: users}
}

// Posts lists every post, newest first.
func (v *ForumView) Posts(ctx context.Context) ([]models.ForumPost, error) {
	posts, err := v.forum.ListPosts(ctx)
	if err != nil {
		return nil, apperr.Backend("list posts", err)
	}
	return posts, nil
}

// Comments lists a post's comments, oldest first.
func (v *ForumView) Comments(ctx context.Context, postID string) ([]models.ForumComment, error) {
	comments, err := v.forum.ListComments(ctx, postID)
	if err != nil {
		return nil, apperr.Backend("list comments", err)
	}
	return comments, nil
}

func (v *ForumView) CreatePost(ctx context.Context, title, content string) ([]models.ForumPost, error) {
	const op = "create post"
	if _, err := requireUser(v.users, op); err != nil {
		return nil, err
	}
	if err := required(op, field("title", title), field("content", content)); err != nil {
		return nil, err
	}
	if _, err := v.forum.CreatePost(ctx, models.NewPost{Title: strings.TrimSpace(title), Content: strings.TrimSpace(content)}); err != nil {
		return nil, apperr.Backend(op, err)
	}
	return v.Posts(ctx)
}

func (v *ForumView) Upvote(ctx context.Context, postID string) ([]models.ForumPost, error) {
	const op = "upvote post"
	if _, err := requireUser(v.users, op); err != nil {
		return nil, err
	}
	if _, err := v.forum.UpvotePost(ctx, postID); err != nil {
		return nil, apperr.Backend(op, err)
	}
	return v.Posts(ctx)
}

// DeletePost removes a post the current user wrote, with its comments.
func (v *ForumView) DeletePost(ctx context.Context, postID string) ([]models.ForumPost, error) {
	const op = "delete post"
	user, err := requireUser(v.users, op)
	if err != nil {
		return nil, err
	}
	posts, err := v.Posts(ctx)
	if err != nil {
		return nil, err
	}
	var target *models.ForumPost
	for i := range posts {
		if posts[i].ID == postID {
			target = &posts[i]
			break
		}
	}
	if target == nil {
		return nil, apperr.Backend(op, &backend.StatusError{Status: http.StatusNotFound, Message: "Post not found"})
	}
	if target.UserID != user.ID {
		return nil, apperr.Forbidden(op, "only the author can delete this post")
	}
	if err := v.forum.DeletePost(ctx, postID); err != nil {
		return nil, apperr.Backend(op, err)
	}
	return v.Posts(ctx)
}

func (v *ForumView) AddComment(ctx context.Context, postID, content string) ([]models.ForumComment, error) {
	const op = "add comment"
	if _, err := requireUser(v.users, op); err != nil {
		return nil, err
	}
	if err := required(op, field("content", content)); err != nil {
		return nil, err
	}
	if _, err := v.forum.CreateComment(ctx, postID, models.NewComment{Content: strings.TrimSpace(content)}); err != nil {
		return nil, apperr.Backend(op, err)
	}
	return v.Comments(ctx, postID)
}

func (v *ForumView) DeleteComment(ctx context.Context, postID, commentID string) ([]models.ForumComment, error) {
	const op = "delete comment"
	user, err := requireUser(v.users, op)
	if err != nil {
		return nil, err
	}
	comments, err := v.Comments(ctx, postID)
	if err != nil {
		return nil, err
	}
	owner := ""
	for _, c := range comments {
		if c.ID == commentID {
			owner = c.UserID
			break
		}
	}
	if owner == "" {
		return nil, apperr.Backend(op, &backend.StatusError{Status: http.StatusNotFound, Message: "Comment not found"})
	}
	if owner != user.ID {
		return nil, apperr.Forbidden(op, "only the author can delete this comment")
	}
	if err := v.forum.DeleteComment(ctx, commentID); err != nil {
		return nil, apperr.Backend(op, err)
	}
	return v.Comments(ctx, postID)
}
