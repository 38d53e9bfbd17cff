package mhub

import (
	"context"
	"time"

	"kyri56xcaesar/taskhub/internal/contract"
)

// Store is the persistence boundary for the service. The Postgres
// implementation lives in database.go; memstore.go carries an in-memory
// one for tests and the DB-less dev profile. Implementations signal
// missing rows and uniqueness violations with contract NOT_FOUND /
// CONFLICT errors so handlers map them without sniffing driver errors.
type Store interface {
	Ping(ctx context.Context) error
	Close()

	// users
	CreateUser(ctx context.Context, u *contract.User, passwordHash string) error
	GetUserByEmail(ctx context.Context, email string) (*contract.User, string, error)
	GetUserByID(ctx context.Context, id string) (*contract.User, error)
	ListUsers(ctx context.Context, page, limit int) ([]contract.User, int, error)
	UpdateUser(ctx context.Context, id string, req contract.UpdateUserRequest) (*contract.User, error)

	// sessions, keyed by refresh-token jti
	SaveSession(ctx context.Context, jti, userID string, expiresAt time.Time) error
	SessionValid(ctx context.Context, jti string) (bool, error)
	RevokeSession(ctx context.Context, jti string) error

	// projects; GetProject always loads the member list
	CreateProject(ctx context.Context, p *contract.Project) error
	GetProject(ctx context.Context, id string) (*contract.Project, error)
	ListProjects(ctx context.Context, requester *contract.User, page, limit int) ([]contract.Project, int, error)
	UpdateProject(ctx context.Context, id string, req contract.UpdateProjectRequest) (*contract.Project, error)
	DeleteProject(ctx context.Context, id string) error

	// members, owned by their project
	AddMember(ctx context.Context, m *contract.ProjectMember) error
	UpdateMemberRole(ctx context.Context, projectID, userID string, role contract.ProjectRole) (*contract.ProjectMember, error)
	RemoveMember(ctx context.Context, projectID, userID string) error
	ListMembers(ctx context.Context, projectID string) ([]contract.ProjectMember, error)

	// tasks
	CreateTask(ctx context.Context, t *contract.Task) error
	GetTask(ctx context.Context, id string) (*contract.Task, error)
	ListTasks(ctx context.Context, f contract.TaskFilter) ([]contract.Task, int, error)
	UpdateTask(ctx context.Context, t *contract.Task) error
	DeleteTask(ctx context.Context, id string) error
}
