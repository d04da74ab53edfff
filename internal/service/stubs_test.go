package service

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/repository"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn        func(context.Context, *models.Post) error
	getByIDFn       func(context.Context, uint) (*models.Post, error)
	countFn         func(context.Context, repository.PostFilter) (int64, error)
	listFn          func(context.Context, repository.PostFilter, int, int) ([]models.Post, error)
	updateContentFn func(context.Context, uint, string, *uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) Count(ctx context.Context, filter repository.PostFilter) (int64, error) {
	return s.countFn(ctx, filter)
}
func (s *postRepoStub) List(ctx context.Context, filter repository.PostFilter, limit, offset int) ([]models.Post, error) {
	return s.listFn(ctx, filter, limit, offset)
}
func (s *postRepoStub) UpdateContent(ctx context.Context, id uint, text string, groupID *uint) error {
	return s.updateContentFn(ctx, id, text, groupID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:  func(_ context.Context, p *models.Post) error { p.ID = 1; return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) { return nil, models.NewNotFoundError("Post", id) },
		countFn:   func(_ context.Context, _ repository.PostFilter) (int64, error) { return 0, nil },
		listFn: func(_ context.Context, _ repository.PostFilter, _, _ int) ([]models.Post, error) {
			return nil, nil
		},
		updateContentFn: func(_ context.Context, _ uint, _ string, _ *uint) error { return nil },
	}
}

// groupRepoStub is a stub for repository.GroupRepository.
type groupRepoStub struct {
	groups map[uint]models.Group
}

func (s *groupRepoStub) GetBySlug(_ context.Context, slug string) (*models.Group, error) {
	for _, g := range s.groups {
		if g.Slug == slug {
			g := g
			return &g, nil
		}
	}
	return nil, models.NewNotFoundError("Group", slug)
}
func (s *groupRepoStub) GetByID(_ context.Context, id uint) (*models.Group, error) {
	if g, ok := s.groups[id]; ok {
		return &g, nil
	}
	return nil, models.NewNotFoundError("Group", id)
}
func (s *groupRepoStub) List(_ context.Context) ([]models.Group, error) {
	out := make([]models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	return out, nil
}
func (s *groupRepoStub) Create(_ context.Context, g *models.Group) error {
	s.groups[g.ID] = *g
	return nil
}
func (s *groupRepoStub) Delete(_ context.Context, slug string) error {
	for id, g := range s.groups {
		if g.Slug == slug {
			delete(s.groups, id)
			return nil
		}
	}
	return models.NewNotFoundError("Group", slug)
}

// userRepoStub is an in-memory repository.UserRepository.
type userRepoStub struct {
	users  map[uint]*models.User
	nextID uint
}

func newUserRepoStub(users ...*models.User) *userRepoStub {
	s := &userRepoStub{users: map[uint]*models.User{}, nextID: 1}
	for _, u := range users {
		s.users[u.ID] = u
		if u.ID >= s.nextID {
			s.nextID = u.ID + 1
		}
	}
	return s
}

func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, models.NewNotFoundError("User", id)
}
func (s *userRepoStub) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.NewNotFoundError("User", username)
}
func (s *userRepoStub) Create(_ context.Context, u *models.User) error {
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return models.NewConflictError("exists")
		}
	}
	u.ID = s.nextID
	s.nextID++
	cp := *u
	s.users[u.ID] = &cp
	return nil
}
func (s *userRepoStub) UpdatePassword(_ context.Context, id uint, hash string) error {
	u, ok := s.users[id]
	if !ok {
		return models.NewNotFoundError("User", id)
	}
	u.Password = hash
	return nil
}
func (s *userRepoStub) Delete(_ context.Context, id uint) error {
	delete(s.users, id)
	return nil
}
func (s *userRepoStub) Count(_ context.Context) (int64, error) {
	return int64(len(s.users)), nil
}

// publisherStub records published events.
type publisherStub struct {
	events []string
	err    error
}

func (p *publisherStub) PublishPost(_ context.Context, eventType string, _ *models.Post, _ string, _ string) error {
	p.events = append(p.events, eventType)
	return p.err
}
