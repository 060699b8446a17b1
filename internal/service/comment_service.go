package service

import (
	"context"
	"strings"

	"guildkeeper/internal/models"
	"guildkeeper/internal/notifications"
	"guildkeeper/internal/policy"
	"guildkeeper/internal/repository"
	"guildkeeper/internal/validation"
)

// Paging limits of comment listings.
const (
	DefaultCommentPageSize = 20
	MaxCommentPageSize     = 50
	MaxCommentLength       = 1000
)

type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	events   events
}

// CommentList is one page of a post's comments.
type CommentList struct {
	Comments   []*models.Comment `json:"comments"`
	Pagination models.Pagination `json:"pagination"`
}

func NewCommentService(store repository.Store) *CommentService {
	return &CommentService{
		comments: store.Comments(),
		posts:    store.Posts(),
	}
}

// UsePublisher makes Create notify post authors of new comments.
func (s *CommentService) UsePublisher(p EventPublisher) {
	s.events = events{pub: p}
}

func validateCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", models.NewValidationError("Comment text is required")
	}
	if err := validation.ValidateMaxLength("comment", text, MaxCommentLength); err != nil {
		return "", models.NewValidationError(err.Error())
	}
	return text, nil
}

// List returns a page of a post's comments, newest first.
func (s *CommentService) List(ctx context.Context, postID string, page models.Page) (*CommentList, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, repoError(err, "Post")
	}
	comments, total, err := s.comments.ListByPost(ctx, postID, page)
	if err != nil {
		return nil, repoError(err, "Comment")
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return &CommentList{Comments: comments, Pagination: models.NewPagination("comments", page, total)}, nil
}

// Create adds a comment to an unlocked post. The lock applies to every role.
func (s *CommentService) Create(ctx context.Context, actor policy.Actor, postID, text string) (*models.Comment, error) {
	text, err := validateCommentText(text)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, repoError(err, "Post")
	}
	if post.CommentsLocked {
		return nil, models.NewForbiddenError(MsgCommentsLocked)
	}

	comment := &models.Comment{
		ID:       models.NewID(),
		Text:     text,
		AuthorID: actor.ID,
		PostID:   post.ID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, repoError(err, "Comment")
	}
	if post.AuthorID != actor.ID {
		s.events.toUser(ctx, post.AuthorID, notifications.Event{
			Type:    notifications.CommentCreated,
			ActorID: actor.ID,
			Data:    map[string]any{"postId": post.ID, "commentId": comment.ID},
		})
	}
	return s.reload(ctx, comment.ID)
}

// Update replaces the text of a comment owned by actor, or any comment for an admin.
func (s *CommentService) Update(ctx context.Context, actor policy.Actor, id, text string) (*models.Comment, error) {
	text, err := validateCommentText(text)
	if err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Comment")
	}
	if err := policy.Authorize(actor, comment.AuthorID, "You do not have permission to edit this comment"); err != nil {
		return nil, err
	}

	comment.Text = text
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, repoError(err, "Comment")
	}
	return s.reload(ctx, id)
}

// Delete removes a comment owned by actor, or any comment for an admin.
func (s *CommentService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return repoError(err, "Comment")
	}
	if err := policy.Authorize(actor, comment.AuthorID, "You do not have permission to delete this comment"); err != nil {
		return err
	}
	return repoError(s.comments.Delete(ctx, id), "Comment")
}

func (s *CommentService) reload(ctx context.Context, id string) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Comment")
	}
	return comment, nil
}
