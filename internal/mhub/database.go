package mhub

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"kyri56xcaesar/taskhub/internal/contract"
)

const pgUniqueViolation = "23505"

// PgStore is the Postgres-backed Store on a pgxpool.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(cfg Config) (*PgStore, error) {
	pool, err := pgxpool.New(
		context.Background(),
		fmt.Sprintf(
			"postgres://%s:%s@%s/%s?sslmode=disable",
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBAddress,
			cfg.DBName,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("could not connect to the database: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping the db: %w", err)
	}

	b, err := os.ReadFile(cfg.InitSQLPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open and read the init sql file: %w", err)
	}
	// apply init sql script
	log.Printf("executing initialization script...")
	if _, err := pool.Exec(context.Background(), string(b)); err != nil {
		return nil, fmt.Errorf("failed to execute init sql: %w", err)
	}

	return &PgStore{pool: pool}, nil
}

func (s *PgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PgStore) Close() {
	s.pool.Close()
}

func mapPgErr(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return contract.Errorf(contract.CodeNotFound, "%s not found", entity)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return contract.Errorf(contract.CodeConflict, "%s already exists", entity)
	}
	return err
}

// --- users ---

func (s *PgStore) CreateUser(ctx context.Context, u *contract.User, passwordHash string) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, role, password_hash, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, u.ID, u.Email, u.Name, u.Role, passwordHash, u.CreatedAt, u.UpdatedAt)
	return mapPgErr(err, "user")
}

func (s *PgStore) GetUserByEmail(ctx context.Context, email string) (*contract.User, string, error) {
	var (
		u    contract.User
		hash string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, name, role, password_hash, created_at, updated_at
		FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &hash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, "", mapPgErr(err, "user")
	}
	return &u, hash, nil
}

func (s *PgStore) GetUserByID(ctx context.Context, id string) (*contract.User, error) {
	var u contract.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, name, role, created_at, updated_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapPgErr(err, "user")
	}
	return &u, nil
}

func (s *PgStore) ListUsers(ctx context.Context, page, limit int) ([]contract.User, int, error) {
	pg := contract.NewPagination(page, limit, 0)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, email, name, role, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, pg.Limit, pg.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]contract.User, 0, pg.Limit)
	for rows.Next() {
		var u contract.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (s *PgStore) UpdateUser(ctx context.Context, id string, req contract.UpdateUserRequest) (*contract.User, error) {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	i := 1

	if req.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", i))
		args = append(args, strings.TrimSpace(*req.Name))
		i++
	}
	if req.Role != nil {
		sets = append(sets, fmt.Sprintf("role = $%d", i))
		args = append(args, *req.Role)
		i++
	}

	if len(sets) == 0 {
		return nil, contract.Errorf(contract.CodeValidation, "no fields to update")
	}

	sets = append(sets, fmt.Sprintf("updated_at = $%d", i))
	args = append(args, time.Now().UTC())
	i++

	args = append(args, id)
	q := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), i)

	ct, err := s.pool.Exec(ctx, q, args...)
	if err != nil {
		return nil, mapPgErr(err, "user")
	}
	if ct.RowsAffected() == 0 {
		return nil, contract.Errorf(contract.CodeNotFound, "user not found")
	}
	return s.GetUserByID(ctx, id)
}

// --- sessions ---

func (s *PgStore) SaveSession(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (jti, user_id, expires_at)
		VALUES ($1,$2,$3)
	`, jti, userID, expiresAt)
	return mapPgErr(err, "session")
}

func (s *PgStore) SessionValid(ctx context.Context, jti string) (bool, error) {
	var valid bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM sessions
			WHERE jti = $1 AND expires_at > now()
		)
	`, jti).Scan(&valid)
	return valid, err
}

func (s *PgStore) RevokeSession(ctx context.Context, jti string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE jti = $1`, jti)
	return err
}

// --- projects ---

func (s *PgStore) CreateProject(ctx context.Context, p *contract.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO projects (id, name, description, owner_id, visibility, deadline, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, p.ID, p.Name, p.Description, p.OwnerID, p.Visibility, p.Deadline, p.CreatedAt, p.UpdatedAt)
	return mapPgErr(err, "project")
}

func (s *PgStore) GetProject(ctx context.Context, id string) (*contract.Project, error) {
	var p contract.Project
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(description,''), owner_id, visibility, deadline, created_at, updated_at
		FROM projects WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.Visibility, &p.Deadline, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapPgErr(err, "project")
	}

	members, err := s.ListMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Members = members

	return &p, nil
}

// ListProjects mirrors contract.ProjectVisible in SQL: PUBLIC projects,
// owned projects and memberships. ADMIN requesters see everything.
func (s *PgStore) ListProjects(ctx context.Context, requester *contract.User, page, limit int) ([]contract.Project, int, error) {
	pg := contract.NewPagination(page, limit, 0)

	where := `
		WHERE p.visibility = 'PUBLIC'
		   OR p.owner_id = $1
		   OR EXISTS(
		        SELECT 1 FROM project_members pm
		        WHERE pm.project_id = p.id AND pm.user_id = $1
		   )
	`
	args := []any{requester.ID}
	if requester.Role == contract.RoleAdmin {
		where = ""
		args = nil
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM projects p %s`, where), args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf(`
		SELECT p.id, p.name, COALESCE(p.description,''), p.owner_id, p.visibility,
		       p.deadline, p.created_at, p.updated_at
		FROM projects p
		%s
		ORDER BY p.created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, pg.Limit, pg.Offset())

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]contract.Project, 0, pg.Limit)
	for rows.Next() {
		var p contract.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.Visibility,
			&p.Deadline, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (s *PgStore) UpdateProject(ctx context.Context, id string, req contract.UpdateProjectRequest) (*contract.Project, error) {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	i := 1

	if req.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", i))
		args = append(args, strings.TrimSpace(*req.Name))
		i++
	}
	if req.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", i))
		args = append(args, *req.Description)
		i++
	}
	if req.Visibility != nil {
		sets = append(sets, fmt.Sprintf("visibility = $%d", i))
		args = append(args, *req.Visibility)
		i++
	}
	if req.Deadline != nil {
		sets = append(sets, fmt.Sprintf("deadline = $%d", i))
		args = append(args, *req.Deadline)
		i++
	}

	if len(sets) == 0 {
		return nil, contract.Errorf(contract.CodeValidation, "no fields to update")
	}

	sets = append(sets, fmt.Sprintf("updated_at = $%d", i))
	args = append(args, time.Now().UTC())
	i++

	args = append(args, id)
	q := fmt.Sprintf("UPDATE projects SET %s WHERE id = $%d", strings.Join(sets, ", "), i)

	ct, err := s.pool.Exec(ctx, q, args...)
	if err != nil {
		return nil, mapPgErr(err, "project")
	}
	if ct.RowsAffected() == 0 {
		return nil, contract.Errorf(contract.CodeNotFound, "project not found")
	}
	return s.GetProject(ctx, id)
}

// DeleteProject removes the project; member rows go with it through the
// ON DELETE CASCADE constraint.
func (s *PgStore) DeleteProject(ctx context.Context, id string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return contract.Errorf(contract.CodeNotFound, "project not found")
	}
	return nil
}

// --- members ---

// AddMember inserts inside a transaction so the duplicate check and the
// insert see one snapshot; concurrent adds still collide on the unique
// (project_id, user_id) constraint.
func (s *PgStore) AddMember(ctx context.Context, m *contract.ProjectMember) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if m.JoinAt.IsZero() {
		m.JoinAt = now
	}
	m.CreatedAt, m.UpdatedAt = now, now

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM project_members
			WHERE project_id = $1 AND user_id = $2
		)
	`, m.ProjectID, m.UserID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return contract.Errorf(contract.CodeConflict, "user is already a member of this project")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO project_members (id, project_id, user_id, role, join_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, m.ID, m.ProjectID, m.UserID, m.Role, m.JoinAt, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return mapPgErr(err, "membership")
	}

	return tx.Commit(ctx)
}

func (s *PgStore) UpdateMemberRole(ctx context.Context, projectID, userID string, role contract.ProjectRole) (*contract.ProjectMember, error) {
	var m contract.ProjectMember
	err := s.pool.QueryRow(ctx, `
		UPDATE project_members
		SET role = $1, updated_at = now()
		WHERE project_id = $2 AND user_id = $3
		RETURNING id, project_id, user_id, role, join_at, created_at, updated_at
	`, role, projectID, userID).Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &m.JoinAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, mapPgErr(err, "membership")
	}
	return &m, nil
}

func (s *PgStore) RemoveMember(ctx context.Context, projectID, userID string) error {
	ct, err := s.pool.Exec(ctx, `
		DELETE FROM project_members
		WHERE project_id = $1 AND user_id = $2
	`, projectID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return contract.Errorf(contract.CodeNotFound, "membership not found")
	}
	return nil
}

func (s *PgStore) ListMembers(ctx context.Context, projectID string) ([]contract.ProjectMember, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, project_id, user_id, role, join_at, created_at, updated_at
		FROM project_members
		WHERE project_id = $1
		ORDER BY join_at ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]contract.ProjectMember, 0, 8)
	for rows.Next() {
		var m contract.ProjectMember
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &m.JoinAt,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- tasks ---

func (s *PgStore) CreateTask(ctx context.Context, t *contract.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks (id, title, description, status, priority, project_id,
		                   assignee_id, creator_id, due_date, completed_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, t.ID, t.Title, t.Description, t.Status, t.Priority, t.ProjectID,
		t.AssigneeID, t.CreatorID, t.DueDate, t.CompletedAt, t.CreatedAt, t.UpdatedAt)
	return mapPgErr(err, "task")
}

func (s *PgStore) GetTask(ctx context.Context, id string) (*contract.Task, error) {
	var t contract.Task
	err := s.pool.QueryRow(ctx, `
		SELECT id, title, COALESCE(description,''), status, priority, project_id,
		       assignee_id, creator_id, due_date, completed_at, created_at, updated_at
		FROM tasks WHERE id = $1
	`, id).Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.ProjectID,
		&t.AssigneeID, &t.CreatorID, &t.DueDate, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapPgErr(err, "task")
	}
	return &t, nil
}

func (s *PgStore) ListTasks(ctx context.Context, f contract.TaskFilter) ([]contract.Task, int, error) {
	pg := contract.NewPagination(f.Page, f.Limit, 0)

	where := []string{"1=1"}
	args := []any{}
	i := 1

	if f.ProjectID != "" {
		where = append(where, fmt.Sprintf("project_id = $%d", i))
		args = append(args, f.ProjectID)
		i++
	}
	if f.AssigneeID != "" {
		where = append(where, fmt.Sprintf("assignee_id = $%d", i))
		args = append(args, f.AssigneeID)
		i++
	}
	if f.ViewerID != "" {
		where = append(where, fmt.Sprintf("(creator_id = $%d OR assignee_id = $%d)", i, i))
		args = append(args, f.ViewerID)
		i++
	}
	if f.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", i))
		args = append(args, f.Status)
		i++
	}
	if f.Priority != "" {
		where = append(where, fmt.Sprintf("priority = $%d", i))
		args = append(args, f.Priority)
		i++
	}
	if f.DueDateFrom != nil {
		where = append(where, fmt.Sprintf("due_date >= $%d", i))
		args = append(args, *f.DueDateFrom)
		i++
	}
	if f.DueDateTo != nil {
		where = append(where, fmt.Sprintf("due_date <= $%d", i))
		args = append(args, *f.DueDateTo)
		i++
	}

	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM tasks WHERE %s`, whereSQL), args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf(`
		SELECT id, title, COALESCE(description,''), status, priority, project_id,
		       assignee_id, creator_id, due_date, completed_at, created_at, updated_at
		FROM tasks
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereSQL, i, i+1)
	args = append(args, pg.Limit, pg.Offset())

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]contract.Task, 0, pg.Limit)
	for rows.Next() {
		var t contract.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.ProjectID,
			&t.AssigneeID, &t.CreatorID, &t.DueDate, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

// UpdateTask writes the full mutable row; the handler owns transition
// legality and the completed_at coupling before calling in.
func (s *PgStore) UpdateTask(ctx context.Context, t *contract.Task) error {
	t.UpdatedAt = time.Now().UTC()

	ct, err := s.pool.Exec(ctx, `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4,
		    assignee_id = $5, due_date = $6, completed_at = $7, updated_at = $8
		WHERE id = $9
	`, t.Title, t.Description, t.Status, t.Priority,
		t.AssigneeID, t.DueDate, t.CompletedAt, t.UpdatedAt, t.ID)
	if err != nil {
		return mapPgErr(err, "task")
	}
	if ct.RowsAffected() == 0 {
		return contract.Errorf(contract.CodeNotFound, "task not found")
	}
	return nil
}

func (s *PgStore) DeleteTask(ctx context.Context, id string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return contract.Errorf(contract.CodeNotFound, "task not found")
	}
	return nil
}
