package services

import (
	"time"

	"safeguard-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const postSelect = `
SELECT p.id, p.user_id, u.full_name AS author_name, p.title, p.content, p.upvotes, p.created_at, p.updated_at
FROM forum_posts p
LEFT JOIN users u ON u.id = p.user_id`

const commentSelect = `
SELECT c.id, c.post_id, c.user_id, u.full_name AS author_name, u.profile_picture AS author_picture,
       c.content, c.created_at, c.updated_at
FROM forum_comments c
LEFT JOIN users u ON u.id = c.user_id`

func ListPosts(db *sqlx.DB) ([]models.ForumPost, error) {
	posts := []models.ForumPost{}
	err := db.Select(&posts, postSelect+` ORDER BY p.created_at DESC`)
	return posts, err
}

func GetPost(db *sqlx.DB, id string) (*models.ForumPost, error) {
	post := models.ForumPost{}
	if err := db.Get(&post, postSelect+` WHERE p.id = $1`, id); err != nil {
		return nil, notFoundOr(err, "Post not found")
	}
	return &post, nil
}

func CreatePost(db *sqlx.DB, userID string, input models.NewPost) (*models.ForumPost, error) {
	title, err := NormalizeRequired(input.Title, "Title is required")
	if err != nil {
		return nil, err
	}
	content, err := NormalizeRequired(input.Content, "Content is required")
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = db.Exec(`
INSERT INTO forum_posts (id, user_id, title, content, upvotes, created_at, updated_at)
VALUES ($1,$2,$3,$4,0,$5,$5)
`, id, userID, title, content, now)
	if err != nil {
		return nil, WrapError(err, "insert post")
	}
	return GetPost(db, id)
}

// UpvotePost increments the counter in a single statement so concurrent
// upvotes are never lost.
func UpvotePost(db *sqlx.DB, id string) (int, error) {
	var upvotes int
	err := db.Get(&upvotes, `UPDATE forum_posts SET upvotes = upvotes + 1 WHERE id = $1 RETURNING upvotes`, id)
	if err != nil {
		return 0, notFoundOr(err, "Post not found")
	}
	return upvotes, nil
}

// DeletePost removes a post authored by userID. Its comments go with it.
func DeletePost(db *sqlx.DB, userID, id string) error {
	var author string
	if err := db.Get(&author, `SELECT user_id FROM forum_posts WHERE id = $1`, id); err != nil {
		return notFoundOr(err, "Post not found")
	}
	if author != userID {
		return ErrForbidden("Only the author can delete this post")
	}
	_, err := db.Exec(`DELETE FROM forum_posts WHERE id = $1 AND user_id = $2`, id, userID)
	return err
}

func ListComments(db *sqlx.DB, postID string) ([]models.ForumComment, error) {
	comments := []models.ForumComment{}
	err := db.Select(&comments, commentSelect+` WHERE c.post_id = $1 ORDER BY c.created_at`, postID)
	return comments, err
}

func CreateComment(db *sqlx.DB, userID, postID string, input models.NewComment) (*models.ForumComment, error) {
	content, err := NormalizeRequired(input.Content, "Content is required")
	if err != nil {
		return nil, err
	}
	var exists bool
	if err := db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM forum_posts WHERE id = $1)`, postID); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound("Post not found")
	}
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = db.Exec(`
INSERT INTO forum_comments (id, post_id, user_id, content, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$5)
`, id, postID, userID, content, now)
	if err != nil {
		return nil, WrapError(err, "insert comment")
	}
	comment := models.ForumComment{}
	if err := db.Get(&comment, commentSelect+` WHERE c.id = $1`, id); err != nil {
		return nil, err
	}
	return &comment, nil
}

func DeleteComment(db *sqlx.DB, userID, id string) error {
	var author string
	if err := db.Get(&author, `SELECT user_id FROM forum_comments WHERE id = $1`, id); err != nil {
		return notFoundOr(err, "Comment not found")
	}
	if author != userID {
		return ErrForbidden("Only the author can delete this comment")
	}
	_, err := db.Exec(`DELETE FROM forum_comments WHERE id = $1 AND user_id = $2`, id, userID)
	return err
}
