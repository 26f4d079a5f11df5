package authz

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/repository"
)

type fakeUsers struct {
	byID  map[string]*domain.User
	err   error
	block bool
}

func newFakeUsers(users ...*domain.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]*domain.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(context.Context, *domain.User) error { return errors.New("not implemented") }

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) TouchLastLogin(context.Context, string, time.Time) error { return nil }

func (f *fakeUsers) SetRole(context.Context, string, domain.Role) error { return nil }

type fakeProjects struct {
	byID map[string]*domain.Project
}

func (f *fakeProjects) Create(context.Context, *domain.Project) error { return nil }
func (f *fakeProjects) Update(context.Context, *domain.Project) error { return nil }
func (f *fakeProjects) Delete(context.Context, string) error { return nil }

func (f *fakeProjects) GetByID(_ context.Context, id string) (*domain.Project, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeProjects) Count(context.Context, repository.ProjectFilter) (int64, error) { return 0, nil }

func (f *fakeProjects) List(context.Context, repository.ProjectFilter) ([]domain.Project, error) {
	return nil, nil
}

func (f *fakeProjects) ListWithOwners(context.Context, repository.ProjectFilter) ([]domain.ProjectWithOwner, error) {
	return nil, nil
}
