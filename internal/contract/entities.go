package contract

import "time"

// System-wide user roles. Governs platform capabilities (user management,
// the admin override in the policy). Distinct axis from ProjectRole.
type SystemRole string

const (
	RoleAdmin          SystemRole = "ADMIN"
	RoleProjectManager SystemRole = "PROJECT_MANAGER"
	RoleUser           SystemRole = "USER"
)

func (r SystemRole) Valid() bool {
	return r == RoleAdmin || r == RoleProjectManager || r == RoleUser
}

// Per-project membership roles.
type ProjectRole string

const (
	RoleViewer       ProjectRole = "VIEWER"
	RoleCollaborator ProjectRole = "COLLABORATOR"
	RoleManager      ProjectRole = "MANAGER"

	// RoleNone is the resolved effective role of a non-member. It is never
	// stored on a member row.
	RoleNone ProjectRole = ""
)

func (r ProjectRole) Valid() bool {
	return r == RoleViewer || r == RoleCollaborator || r == RoleManager
}

type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusCompleted  TaskStatus = "COMPLETED"
	StatusCancelled  TaskStatus = "CANCELLED"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a task may move from s to next.
// TODO -> IN_PROGRESS -> COMPLETED, CANCELLED reachable from TODO and
// IN_PROGRESS. COMPLETED and CANCELLED are terminal. Re-asserting the
// current status is a no-op and always legal.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusTodo:
		return next == StatusInProgress || next == StatusCancelled
	case StatusInProgress:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// NormalizePriority is the single conversion boundary for the legacy
// lower-case three-value priority vocabulary. Canonical values pass
// through unchanged.
func NormalizePriority(raw string) (TaskPriority, error) {
	switch raw {
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	}
	p := TaskPriority(raw)
	if !p.Valid() {
		return "", Errorf(CodeValidation, "unknown priority %q", raw)
	}
	return p, nil
}

type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      SystemRole `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type Project struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	OwnerID     string          `json:"ownerId"`
	Visibility  Visibility      `json:"visibility"`
	Deadline    *time.Time      `json:"deadline,omitempty"`
	Members     []ProjectMember `json:"members,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Member rows are owned by their project; they have no lifecycle of
// their own and are removed when the project goes.
type ProjectMember struct {
	ID        string      `json:"id"`
	ProjectID string      `json:"projectId"`
	UserID    string      `json:"userId"`
	Role      ProjectRole `json:"role"`
	JoinAt    time.Time   `json:"joinAt"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	ProjectID   *string      `json:"projectId,omitempty"`
	AssigneeID  *string      `json:"assigneeId,omitempty"`
	CreatorID   string       `json:"creatorId"`
	DueDate     *time.Time   `json:"dueDate,omitempty"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// ApplyStatus moves the task to next, keeping CompletedAt coupled to the
// status: set exactly when the task lands on COMPLETED, cleared otherwise.
func (t *Task) ApplyStatus(next TaskStatus, now time.Time) error {
	if !next.Valid() {
		return Errorf(CodeValidation, "unknown status %q", string(next))
	}
	if !t.Status.CanTransition(next) {
		return Errorf(CodeValidation, "illegal status transition %s -> %s", t.Status, next)
	}
	t.Status = next
	if next == StatusCompleted {
		if t.CompletedAt == nil {
			ts := now
			t.CompletedAt = &ts
		}
	} else {
		t.CompletedAt = nil
	}
	return nil
}
