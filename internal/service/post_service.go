// Package service holds the application's business logic.
package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/notifications"
	"yatube/internal/observability"
	"yatube/internal/pagination"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// PostTextMaxLen bounds the length of a post body.
const PostTextMaxLen = 50000

const msgInvalidGroup = "Select a valid choice. That choice is not one of the available choices."

// PostPublisher receives post events after they are stored.
type PostPublisher interface {
	PublishPost(ctx context.Context, eventType string, post *models.Post, author string, groupSlug string) error
}

// PostService implements listing, reading, creating and editing posts.
type PostService struct {
	postRepo  repository.PostRepository
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
	publisher PostPublisher
	perPage   int
}

// NewPostService creates a PostService. publisher may be nil.
func NewPostService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	publisher PostPublisher,
	perPage int,
) *PostService {
	if perPage <= 0 {
		perPage = pagination.DefaultPerPage
	}
	return &PostService{
		postRepo:  postRepo,
		groupRepo: groupRepo,
		userRepo:  userRepo,
		publisher: publisher,
		perPage:   perPage,
	}
}

// PostForm is the submitted create/edit form. Group holds the group id as
// text; empty means no group.
type PostForm struct {
	Text  string `form:"text" validate:"required,max=50000"`
	Group string `form:"group"`
}

type CreatePostInput struct {
	AuthorID uint
	Form     PostForm
}

type UpdatePostInput struct {
	UserID uint
	PostID uint
	Form   PostForm
}

// PostPage is one page of a post listing.
type PostPage struct {
	Page  pagination.Page
	Posts []models.Post
}

func (s *PostService) list(ctx context.Context, filter repository.PostFilter, rawPage string) (*PostPage, error) {
	total, err := s.postRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := pagination.New(total, s.perPage).Page(rawPage)
	posts, err := s.postRepo.List(ctx, filter, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	return &PostPage{Page: page, Posts: posts}, nil
}

// ListIndex returns a page of all posts, newest first.
func (s *PostService) ListIndex(ctx context.Context, rawPage string) (*PostPage, error) {
	return s.list(ctx, repository.PostFilter{}, rawPage)
}

// ListGroup resolves the group by slug and returns a page of its posts.
func (s *PostService) ListGroup(ctx context.Context, slug, rawPage string) (*models.Group, *PostPage, error) {
	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	page, err := s.list(ctx, repository.PostFilter{GroupID: group.ID}, rawPage)
	if err != nil {
		return nil, nil, err
	}
	return group, page, nil
}

// ListProfile resolves the author by username and returns a page of their posts.
func (s *PostService) ListProfile(ctx context.Context, username, rawPage string) (*models.User, *PostPage, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	page, err := s.list(ctx, repository.PostFilter{AuthorID: author.ID}, rawPage)
	if err != nil {
		return nil, nil, err
	}
	return author, page, nil
}

// GetPost returns one post and the number of posts its author has written.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, int64, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.postRepo.Count(ctx, repository.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return nil, 0, err
	}
	return post, count, nil
}

// Groups returns the choices for the group select box.
func (s *PostService) Groups(ctx context.Context) ([]models.Group, error) {
	return s.groupRepo.List(ctx)
}

// clean trims the form and checks it. It returns the text to store and the
// resolved group, or a VALIDATION_ERROR carrying field messages.
func (s *PostService) clean(ctx context.Context, form PostForm) (string, *models.Group, error) {
	form.Text = strings.TrimSpace(form.Text)
	form.Group = strings.TrimSpace(form.Group)

	fields := validation.Struct(form)
	if fields == nil {
		fields = models.FieldErrors{}
	}

	var group *models.Group
	if form.Group != "" {
		id, err := strconv.ParseUint(form.Group, 10, 32)
		if err != nil || id == 0 {
			fields.Add("group", msgInvalidGroup)
		} else {
			group, err = s.groupRepo.GetByID(ctx, uint(id))
			switch {
			case models.HasCode(err, models.CodeNotFound):
				fields.Add("group", msgInvalidGroup)
			case err != nil:
				return "", nil, err
			}
		}
	}

	if fields.Has() {
		observability.FormRejections.WithLabelValues("post").Inc()
		return "", nil, models.NewFormError(fields)
	}
	return form.Text, group, nil
}

// CreatePost stores a new post authored by in.AuthorID. Any author the client
// may have sent is ignored; pub_date is assigned by the server.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, finish := observability.StartSpan(ctx, "PostService.CreatePost",
		attribute.Int64("author.id", int64(in.AuthorID)))
	defer func() { finish(err) }()

	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("authentication required")
	}

	text, group, err := s.clean(ctx, in.Form)
	if err != nil {
		return nil, err
	}

	author, err := s.userRepo.GetByID(ctx, in.AuthorID)
	if err != nil {
		return nil, err
	}

	post = &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		post.GroupID = &group.ID
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	post.Author = *author
	post.Group = group

	observability.PostsCreated.Inc()
	middleware.Logger.InfoContext(ctx, "post created", slog.Uint64("post_id", uint64(post.ID)))
	s.publish(ctx, notifications.EventPostCreated, post)
	return post, nil
}

// EditablePost returns the post if userID may edit it. A missing post is
// NOT_FOUND; someone else's post is UNAUTHORIZED.
func (s *PostService) EditablePost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		observability.EditRefusals.Inc()
		middleware.Logger.InfoContext(ctx, "post edit refused",
			slog.Uint64("post_id", uint64(postID)), slog.Uint64("user_id", uint64(userID)))
		return nil, models.NewUnauthorizedError("only the author can edit this post")
	}
	return post, nil
}

// UpdatePost replaces the text and group of a post the caller wrote.
// Author and pub_date never change.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (post *models.Post, err error) {
	ctx, finish := observability.StartSpan(ctx, "PostService.UpdatePost",
		attribute.Int64("post.id", int64(in.PostID)))
	defer func() { finish(err) }()

	post, err = s.EditablePost(ctx, in.UserID, in.PostID)
	if err != nil {
		return nil, err
	}

	text, group, err := s.clean(ctx, in.Form)
	if err != nil {
		return nil, err
	}

	var groupID *uint
	if group != nil {
		groupID = &group.ID
	}
	if err := s.postRepo.UpdateContent(ctx, post.ID, text, groupID); err != nil {
		return nil, err
	}
	post.Text = text
	post.GroupID = groupID
	post.Group = group

	observability.PostsEdited.Inc()
	s.publish(ctx, notifications.EventPostEdited, post)
	return post, nil
}

// publish is best-effort; a failed publish never fails the write.
func (s *PostService) publish(ctx context.Context, eventType string, post *models.Post) {
	if s.publisher == nil {
		return
	}
	slug := ""
	if post.Group != nil {
		slug = post.Group.Slug
	}
	if err := s.publisher.PublishPost(ctx, eventType, post, post.Author.Username, slug); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish post event",
			slog.String("type", eventType), slog.String("error", err.Error()))
	}
}
