package service

import (
	"context"
	"strings"

	"guildkeeper/internal/cache"
	"guildkeeper/internal/models"
	"guildkeeper/internal/notifications"
	"guildkeeper/internal/policy"
	"guildkeeper/internal/repository"
	"guildkeeper/internal/validation"
)

// Paging limits of post listings.
const (
	DefaultPostPageSize = 10
	MaxPostPageSize     = 50
)

// Bounds of the level and player ranges.
const (
	RangeMin = 1
	RangeMax = 20
)

type PostService struct {
	posts      repository.PostRepository
	comments   repository.CommentRepository
	categories repository.CategoryRepository
	tags       repository.TagRepository
	events     events
}

// PostInput is a create or partial update payload. Nil fields are left unchanged on update.
// Categories and Tags hold names. A non-nil empty list clears the references.
type PostInput struct {
	Title          *string       `json:"title"`
	Body           *string       `json:"body"`
	Type           *string       `json:"type"`
	Categories     []string      `json:"categories"`
	Tags           []string      `json:"tags"`
	Level          *models.Range `json:"level"`
	Players        *models.Range `json:"players"`
	Location       *string       `json:"location"`
	Status         *string       `json:"status"`
	Public         *bool         `json:"public"`
	CommentsLocked *bool         `json:"commentsLocked"`
	Pinned         *bool         `json:"pinned"`
}

// ListPostsInput holds the query of a post listing.
type ListPostsInput struct {
	// Public defaults to true. False lists hidden posts the actor may see.
	Public      *bool
	Group       string
	Type        string
	Status      string
	CategoryIDs []string
	TagIDs      []string
	Search      string
	MinLevel    *int
	MaxLevel    *int
	Sort        repository.Sort
	Page        models.Page
}

// PostList is one page of posts.
type PostList struct {
	Posts      []*models.Post    `json:"posts"`
	Pagination models.Pagination `json:"pagination"`
}

func NewPostService(store repository.Store) *PostService {
	return &PostService{
		posts:      store.Posts(),
		comments:   store.Comments(),
		categories: store.Categories(),
		tags:       store.Tags(),
	}
}

// UsePublisher makes Create broadcast newly published public posts.
func (s *PostService) UsePublisher(p EventPublisher) {
	s.events = events{pub: p}
}

// List returns a filtered page of posts visible to actor.
func (s *PostService) List(ctx context.Context, actor policy.Actor, in ListPostsInput) (*PostList, error) {
	public := in.Public == nil || *in.Public
	filter := repository.PostFilter{
		Public:      &public,
		Status:      models.PostStatus(in.Status),
		CategoryIDs: in.CategoryIDs,
		TagIDs:      in.TagIDs,
		Search:      strings.TrimSpace(in.Search),
		MinLevel:    in.MinLevel,
		MaxLevel:    in.MaxLevel,
	}
	if !public {
		if actor.Anonymous() {
			return &PostList{Posts: []*models.Post{}, Pagination: models.NewPagination("posts", in.Page, 0)}, nil
		}
		if !actor.IsAdmin() {
			filter.AuthorID = actor.ID
		}
	}

	if types, ok := models.PostGroupTypes[in.Group]; ok {
		filter.Types = types
	} else if in.Type != "" {
		filter.Types = []models.PostType{models.PostType(in.Type)}
	}

	return s.list(ctx, filter, in.Sort, in.Page)
}

// ListMine returns the caller's own posts, newest first.
func (s *PostService) ListMine(ctx context.Context, actor policy.Actor, page models.Page) (*PostList, error) {
	return s.list(ctx, repository.PostFilter{AuthorID: actor.ID}, repository.DefaultSort, page)
}

func (s *PostService) list(ctx context.Context, filter repository.PostFilter, sort repository.Sort, page models.Page) (*PostList, error) {
	if sort.Field == "" {
		sort = repository.DefaultSort
	}
	posts, total, err := s.posts.List(ctx, filter, sort, page)
	if err != nil {
		return nil, repoError(err, "Post")
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return &PostList{Posts: posts, Pagination: models.NewPagination("posts", page, total)}, nil
}

// Get returns a post. Hidden posts are visible to their author and admins only.
func (s *PostService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Post")
	}
	if !post.Public && !policy.CanModify(actor, post.AuthorID) {
		return nil, models.NewForbiddenError(MsgPostAccessDenied)
	}
	return post, nil
}

// Create publishes a post. Only admins may create posts.
func (s *PostService) Create(ctx context.Context, actor policy.Actor, in PostInput) (*models.Post, error) {
	if err := policy.RequireAdmin(actor, MsgAdminOnlyPosts); err != nil {
		return nil, err
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" || in.Body == nil || strings.TrimSpace(*in.Body) == "" {
		return nil, models.NewValidationError("Title and body are required")
	}

	post := &models.Post{
		ID:       models.NewID(),
		AuthorID: actor.ID,
		Type:     models.PostTypeDiscussion,
		Public:   true,
	}
	if err := s.apply(ctx, post, in); err != nil {
		return nil, err
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, repoError(err, "Post")
	}
	if post.Public {
		s.events.broadcast(ctx, notifications.Event{
			Type:    notifications.PostPublished,
			ActorID: actor.ID,
			Data:    map[string]any{"postId": post.ID, "title": post.Title, "type": post.Type},
		})
	}
	return s.reload(ctx, post.ID)
}

// Update applies a partial edit by the author or an admin. The author never changes.
func (s *PostService) Update(ctx context.Context, actor policy.Actor, id string, in PostInput) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Post")
	}
	if err := policy.Authorize(actor, post.AuthorID, "You do not have permission to edit this post"); err != nil {
		return nil, err
	}

	if err := s.apply(ctx, post, in); err != nil {
		return nil, err
	}
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, repoError(err, "Post")
	}
	return s.reload(ctx, post.ID)
}

// Delete removes a post and its comments.
func (s *PostService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return repoError(err, "Post")
	}
	if err := policy.Authorize(actor, post.AuthorID, "You do not have permission to delete this post"); err != nil {
		return err
	}

	if _, err := s.comments.DeleteByPosts(ctx, []string{id}); err != nil {
		return repoError(err, "Comment")
	}
	return repoError(s.posts.Delete(ctx, id), "Post")
}

// UsedCategories returns the categories referenced by at least one post.
func (s *PostService) UsedCategories(ctx context.Context) ([]models.Category, error) {
	ids, err := s.posts.UsedCategoryIDs(ctx)
	if err != nil {
		return nil, repoError(err, "Category")
	}
	cats, err := s.categories.GetByIDs(ctx, ids)
	if err != nil {
		return nil, repoError(err, "Category")
	}
	if cats == nil {
		cats = []models.Category{}
	}
	return cats, nil
}

// UsedTags returns the tags referenced by at least one post.
func (s *PostService) UsedTags(ctx context.Context) ([]models.Tag, error) {
	ids, err := s.posts.UsedTagIDs(ctx)
	if err != nil {
		return nil, repoError(err, "Tag")
	}
	tags, err := s.tags.GetByIDs(ctx, ids)
	if err != nil {
		return nil, repoError(err, "Tag")
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return tags, nil
}

func (s *PostService) reload(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Post")
	}
	return post, nil
}

// apply validates in and copies it onto post, resolving taxonomy names to ids and
// clamping the ranges.
func (s *PostService) apply(ctx context.Context, post *models.Post, in PostInput) error {
	var errs validation.Errors

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			errs.Addf("title is required")
		}
		errs.Add(validation.ValidateMaxLength("title", title, 200))
		post.Title = title
	}
	if in.Body != nil {
		if strings.TrimSpace(*in.Body) == "" {
			errs.Addf("body is required")
		}
		errs.Add(validation.ValidateMaxLength("body", *in.Body, 10000))
		post.Body = *in.Body
	}
	if in.Type != nil {
		t := models.PostType(*in.Type)
		if !t.Valid() {
			errs.Addf("type must be one of: campaign, adventure, tavern-tale, quest, discussion, announcement")
		}
		post.Type = t
	}
	if in.Status != nil {
		st := models.PostStatus(*in.Status)
		if !st.Valid() {
			errs.Addf("status must be one of: planning, active, completed, on-hold")
		}
		post.Status = st
	}
	if in.Location != nil {
		loc := strings.TrimSpace(*in.Location)
		errs.Add(validation.ValidateMaxLength("location", loc, 100))
		post.Location = loc
	}
	if in.Level != nil {
		validateRange(&errs, "level", in.Level)
		post.Level = in.Level
	}
	if in.Players != nil {
		validateRange(&errs, "players", in.Players)
		post.Players = in.Players
	}
	if in.Public != nil {
		post.Public = *in.Public
	}
	if in.CommentsLocked != nil {
		post.CommentsLocked = *in.CommentsLocked
	}
	if in.Pinned != nil {
		post.Pinned = *in.Pinned
	}

	for _, name := range in.Categories {
		errs.Add(validateTaxonomyName("category", strings.TrimSpace(name), 50))
	}
	for _, name := range in.Tags {
		errs.Add(validateTaxonomyName("tag", strings.TrimSpace(name), 30))
	}
	if err := errs.Err(); err != nil {
		return err
	}

	if in.Categories != nil {
		ids, err := resolveNames(ctx, in.Categories, s.categories.Resolve, func(c *models.Category) string { return c.ID })
		if err != nil {
			return repoError(err, "Category")
		}
		post.CategoryIDs = ids
		post.Categories = nil
		// a name may have created a category
		cache.InvalidateCategories(ctx)
	}
	if in.Tags != nil {
		ids, err := resolveNames(ctx, in.Tags, s.tags.Resolve, func(t *models.Tag) string { return t.ID })
		if err != nil {
			return repoError(err, "Tag")
		}
		post.TagIDs = ids
		post.Tags = nil
		cache.InvalidateTags(ctx)
	}

	post.ClampRanges()
	return nil
}

func validateRange(errs *validation.Errors, field string, r *models.Range) {
	if r.Min < RangeMin || r.Min > RangeMax || r.Max < RangeMin || r.Max > RangeMax {
		errs.Addf("%s must be between %d and %d", field, RangeMin, RangeMax)
	}
}

func validateTaxonomyName(kind, name string, maxLen int) error {
	return validation.ValidateLength(kind+" name", name, 2, maxLen)
}

// resolveNames maps trimmed, de-duplicated names to entry ids, creating missing entries.
func resolveNames[T any](ctx context.Context, names []string, resolve func(context.Context, string) (*T, error), id func(*T) string) ([]string, error) {
	ids := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		entry, err := resolve(ctx, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id(entry))
	}
	return ids, nil
}
