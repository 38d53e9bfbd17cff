package mhub

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"kyri56xcaesar/taskhub/internal/contract"
)

// MemStore is an in-memory Store used by the "memory" profile and by the
// handler tests. Single mutex; every method copies what it hands out so
// callers never alias internal state.
type MemStore struct {
	mu sync.Mutex

	users    map[string]contract.User
	hashes   map[string]string // user id -> bcrypt hash
	sessions map[string]sessionRow
	projects map[string]contract.Project
	members  map[string][]contract.ProjectMember // project id -> rows
	tasks    map[string]contract.Task
}

type sessionRow struct {
	userID    string
	expiresAt time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:    make(map[string]contract.User),
		hashes:   make(map[string]string),
		sessions: make(map[string]sessionRow),
		projects: make(map[string]contract.Project),
		members:  make(map[string][]contract.ProjectMember),
		tasks:    make(map[string]contract.Task),
	}
}

func (s *MemStore) Ping(context.Context) error { return nil }
func (s *MemStore) Close()                     {}

// --- users ---

func (s *MemStore) CreateUser(_ context.Context, u *contract.User, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return contract.Errorf(contract.CodeConflict, "user already exists")
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	s.users[u.ID] = *u
	s.hashes[u.ID] = passwordHash
	return nil
}

func (s *MemStore) GetUserByEmail(_ context.Context, email string) (*contract.User, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := u
			return &cp, s.hashes[id], nil
		}
	}
	return nil, "", contract.Errorf(contract.CodeNotFound, "user not found")
}

func (s *MemStore) GetUserByID(_ context.Context, id string) (*contract.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, contract.Errorf(contract.CodeNotFound, "user not found")
	}
	cp := u
	return &cp, nil
}

func (s *MemStore) ListUsers(_ context.Context, page, limit int) ([]contract.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]contract.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	return pageSlice(all, page, limit), total, nil
}

func (s *MemStore) UpdateUser(_ context.Context, id string, req contract.UpdateUserRequest) (*contract.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, contract.Errorf(contract.CodeNotFound, "user not found")
	}
	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u

	cp := u
	return &cp, nil
}

// --- sessions ---

func (s *MemStore) SaveSession(_ context.Context, jti, userID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[jti] = sessionRow{userID: userID, expiresAt: expiresAt}
	return nil
}

func (s *MemStore) SessionValid(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.sessions[jti]
	return ok && row.expiresAt.After(time.Now()), nil
}

func (s *MemStore) RevokeSession(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, jti)
	return nil
}

// --- projects ---

func (s *MemStore) CreateProject(_ context.Context, p *contract.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	s.projects[p.ID] = *p
	return nil
}

func (s *MemStore) getProjectLocked(id string) (*contract.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, contract.Errorf(contract.CodeNotFound, "project not found")
	}
	cp := p
	cp.Members = make([]contract.ProjectMember, 0, len(s.members[id]))
	cp.Members = append(cp.Members, s.members[id]...)
	return &cp, nil
}

func (s *MemStore) GetProject(_ context.Context, id string) (*contract.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getProjectLocked(id)
}

func (s *MemStore) ListProjects(_ context.Context, requester *contract.User, page, limit int) ([]contract.Project, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	visible := make([]contract.Project, 0, len(s.projects))
	for id := range s.projects {
		p, _ := s.getProjectLocked(id)
		if contract.ProjectVisible(requester, p) {
			visible = append(visible, *p)
		}
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].CreatedAt.After(visible[j].CreatedAt) })

	total := len(visible)
	return pageSlice(visible, page, limit), total, nil
}

func (s *MemStore) UpdateProject(_ context.Context, id string, req contract.UpdateProjectRequest) (*contract.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, contract.Errorf(contract.CodeNotFound, "project not found")
	}
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Visibility != nil {
		p.Visibility = *req.Visibility
	}
	if req.Deadline != nil {
		p.Deadline = req.Deadline
	}
	p.UpdatedAt = time.Now().UTC()
	s.projects[id] = p

	return s.getProjectLocked(id)
}

func (s *MemStore) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return contract.Errorf(contract.CodeNotFound, "project not found")
	}
	delete(s.projects, id)
	// member rows go with their project
	delete(s.members, id)
	return nil
}

// --- members ---

func (s *MemStore) AddMember(_ context.Context, m *contract.ProjectMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[m.ProjectID]; !ok {
		return contract.Errorf(contract.CodeNotFound, "project not found")
	}
	for _, existing := range s.members[m.ProjectID] {
		if existing.UserID == m.UserID {
			return contract.Errorf(contract.CodeConflict, "user is already a member of this project")
		}
	}

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if m.JoinAt.IsZero() {
		m.JoinAt = now
	}
	m.CreatedAt, m.UpdatedAt = now, now

	s.members[m.ProjectID] = append(s.members[m.ProjectID], *m)
	return nil
}

func (s *MemStore) UpdateMemberRole(_ context.Context, projectID, userID string, role contract.ProjectRole) (*contract.ProjectMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.members[projectID]
	for i := range rows {
		if rows[i].UserID == userID {
			rows[i].Role = role
			rows[i].UpdatedAt = time.Now().UTC()
			cp := rows[i]
			return &cp, nil
		}
	}
	return nil, contract.Errorf(contract.CodeNotFound, "membership not found")
}

func (s *MemStore) RemoveMember(_ context.Context, projectID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.members[projectID]
	for i := range rows {
		if rows[i].UserID == userID {
			s.members[projectID] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return contract.Errorf(contract.CodeNotFound, "membership not found")
}

func (s *MemStore) ListMembers(_ context.Context, projectID string) ([]contract.ProjectMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return nil, contract.Errorf(contract.CodeNotFound, "project not found")
	}
	// an empty member list marshals as [], never null
	out := make([]contract.ProjectMember, 0, len(s.members[projectID]))
	out = append(out, s.members[projectID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].JoinAt.Before(out[j].JoinAt) })
	return out, nil
}

// --- tasks ---

func (s *MemStore) CreateTask(_ context.Context, t *contract.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	s.tasks[t.ID] = *t
	return nil
}

func (s *MemStore) GetTask(_ context.Context, id string) (*contract.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, contract.Errorf(contract.CodeNotFound, "task not found")
	}
	cp := t
	return &cp, nil
}

func (s *MemStore) ListTasks(_ context.Context, f contract.TaskFilter) ([]contract.Task, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]contract.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if f.ProjectID != "" && (t.ProjectID == nil || *t.ProjectID != f.ProjectID) {
			continue
		}
		if f.AssigneeID != "" && (t.AssigneeID == nil || *t.AssigneeID != f.AssigneeID) {
			continue
		}
		if f.ViewerID != "" && t.CreatorID != f.ViewerID &&
			(t.AssigneeID == nil || *t.AssigneeID != f.ViewerID) {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		if f.DueDateFrom != nil && (t.DueDate == nil || t.DueDate.Before(*f.DueDateFrom)) {
			continue
		}
		if f.DueDateTo != nil && (t.DueDate == nil || t.DueDate.After(*f.DueDateTo)) {
			continue
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	return pageSlice(matched, f.Page, f.Limit), total, nil
}

func (s *MemStore) UpdateTask(_ context.Context, t *contract.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[t.ID]; !ok {
		return contract.Errorf(contract.CodeNotFound, "task not found")
	}
	t.UpdatedAt = time.Now().UTC()
	s.tasks[t.ID] = *t
	return nil
}

func (s *MemStore) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return contract.Errorf(contract.CodeNotFound, "task not found")
	}
	delete(s.tasks, id)
	return nil
}

// pageSlice cuts the pagination window out of a sorted slice; an
// out-of-range page yields an empty, non-nil slice.
func pageSlice[T any](all []T, page, limit int) []T {
	pg := contract.NewPagination(page, limit, len(all))
	start := pg.Offset()
	if start >= len(all) {
		return []T{}
	}
	end := start + pg.Limit
	if end > len(all) {
		end = len(all)
	}
	return append([]T{}, all[start:end]...)
}
