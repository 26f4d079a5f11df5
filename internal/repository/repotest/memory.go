// Package repotest provides in-memory repositories for tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/repository"
)

var (
	_ repository.UserRepository    = (*Users)(nil)
	_ repository.ProjectRepository = (*Projects)(nil)
)

// Users is an in-memory UserRepository.
type Users struct {
	mu        sync.Mutex
	byID      map[string]*domain.User
	CreateErr error

	// BlockLookups makes GetByID wait for its context to end.
	BlockLookups bool
}

// NewUsers returns an empty user store.
func NewUsers() *Users {
	return &Users{byID: map[string]*domain.User{}}
}

func (m *Users) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	for _, u := range m.byID {
		if u.Email == user.Email {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	cp := *user
	m.byID[user.ID] = &cp
	return nil
}

func (m *Users) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.BlockLookups {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *Users) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.LastLogin = &at
	return nil
}

func (m *Users) SetRole(_ context.Context, id string, role domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Role = role
	return nil
}

// Len returns the number of stored users.
func (m *Users) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// Projects is an in-memory ProjectRepository ordered by serial number.
type Projects struct {
	mu     sync.Mutex
	byID   map[string]*domain.Project
	users  *Users
	nextSl int64
}

// NewProjects returns an empty project store that resolves owners through users.
func NewProjects(users *Users) *Projects {
	return &Projects{byID: map[string]*domain.Project{}, users: users}
}

func (m *Projects) Create(_ context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSl++
	p.ID = uuid.NewString()
	p.SlNo = m.nextSl
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *Projects) Update(_ context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.byID[p.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	owner := existing.CreatedBy
	cp := *p
	cp.CreatedBy = owner
	cp.UpdatedAt = time.Now()
	m.byID[p.ID] = &cp
	p.UpdatedAt = cp.UpdatedAt
	return nil
}

func (m *Projects) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

func (m *Projects) GetByID(_ context.Context, id string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *Projects) matching(filter repository.ProjectFilter) []domain.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Project
	for _, p := range m.byID {
		if filter.OwnerID != nil && p.CreatedBy != *filter.OwnerID {
			continue
		}
		if filter.District != nil && (p.District == nil || *p.District != *filter.District) {
			continue
		}
		if filter.Division != nil && (p.Division == nil || *p.Division != *filter.Division) {
			continue
		}
		if filter.NameContains != nil && !strings.Contains(strings.ToLower(p.ProjectName), strings.ToLower(*filter.NameContains)) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlNo < out[j].SlNo })
	return out
}

func (m *Projects) Count(_ context.Context, filter repository.ProjectFilter) (int64, error) {
	return int64(len(m.matching(filter))), nil
}

func (m *Projects) List(_ context.Context, filter repository.ProjectFilter) ([]domain.Project, error) {
	all := m.matching(filter)
	if filter.Offset >= len(all) {
		return []domain.Project{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], nil
}

func (m *Projects) ListWithOwners(ctx context.Context, filter repository.ProjectFilter) ([]domain.ProjectWithOwner, error) {
	page, _ := m.List(ctx, filter)
	out := make([]domain.ProjectWithOwner, 0, len(page))
	for _, p := range page {
		owner, err := m.users.GetByID(ctx, p.CreatedBy)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.ProjectWithOwner{Project: p, OwnerName: owner.Name, OwnerEmail: owner.Email})
	}
	return out, nil
}
