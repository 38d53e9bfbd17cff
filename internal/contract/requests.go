package contract

import (
	"strings"
	"time"
)

// One request shape per mutating operation. Pointer fields on update
// requests mean "leave unchanged"; clearing a clearable field goes
// through an explicit JSON null, which binds to a set pointer.

type RegisterRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email,max=254"`
	Name     string `json:"name" form:"name" binding:"required,min=2,max=120"`
	Password string `json:"password" form:"password" binding:"required,min=8,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken" binding:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type CreateProjectRequest struct {
	Name        string     `json:"name" binding:"required,min=2,max=120"`
	Description string     `json:"description" binding:"max=2000"`
	Visibility  Visibility `json:"visibility" binding:"omitempty,oneof=PUBLIC PRIVATE"`
	Deadline    *time.Time `json:"deadline"`
}

func (r *CreateProjectRequest) Validate() error {
	if r.Visibility == "" {
		r.Visibility = VisibilityPrivate
	}
	if !r.Visibility.Valid() {
		return Errorf(CodeValidation, "invalid visibility %q", string(r.Visibility))
	}
	return nil
}

type UpdateProjectRequest struct {
	Name        *string     `json:"name" binding:"omitempty,min=2,max=120"`
	Description *string     `json:"description" binding:"omitempty,max=2000"`
	Visibility  *Visibility `json:"visibility" binding:"omitempty,oneof=PUBLIC PRIVATE"`
	Deadline    *time.Time  `json:"deadline"`
}

func (r *UpdateProjectRequest) Validate() error {
	if r.Name == nil && r.Description == nil && r.Visibility == nil && r.Deadline == nil {
		return Errorf(CodeValidation, "provide at least one field to update")
	}
	if r.Visibility != nil && !r.Visibility.Valid() {
		return Errorf(CodeValidation, "invalid visibility %q", string(*r.Visibility))
	}
	return nil
}

type AddMemberRequest struct {
	UserID string      `json:"userId" binding:"required"`
	Role   ProjectRole `json:"role" binding:"required,oneof=VIEWER COLLABORATOR MANAGER"`
}

func (r *AddMemberRequest) Validate() error {
	if !r.Role.Valid() {
		return Errorf(CodeValidation, "invalid project role %q", string(r.Role))
	}
	return nil
}

type UpdateMemberRoleRequest struct {
	Role ProjectRole `json:"role" binding:"required,oneof=VIEWER COLLABORATOR MANAGER"`
}

func (r *UpdateMemberRoleRequest) Validate() error {
	if !r.Role.Valid() {
		return Errorf(CodeValidation, "invalid project role %q", string(r.Role))
	}
	return nil
}

type CreateTaskRequest struct {
	Title       string       `json:"title" binding:"required,min=1,max=200"`
	Description string       `json:"description" binding:"max=2000"`
	Priority    TaskPriority `json:"priority" binding:"omitempty"`
	ProjectID   *string      `json:"projectId"`
	AssigneeID  *string      `json:"assigneeId"`
	DueDate     *time.Time   `json:"dueDate"`
}

func (r *CreateTaskRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return Errorf(CodeValidation, "title must not be empty")
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	} else {
		p, err := NormalizePriority(string(r.Priority))
		if err != nil {
			return err
		}
		r.Priority = p
	}
	return nil
}

type UpdateTaskRequest struct {
	Title       *string       `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string       `json:"description" binding:"omitempty,max=2000"`
	Status      *TaskStatus   `json:"status" binding:"omitempty,oneof=TODO IN_PROGRESS COMPLETED CANCELLED"`
	Priority    *TaskPriority `json:"priority" binding:"omitempty"`
	AssigneeID  *string       `json:"assigneeId"`
	DueDate     *time.Time    `json:"dueDate"`
}

func (r *UpdateTaskRequest) Validate() error {
	if r.Title == nil && r.Description == nil && r.Status == nil &&
		r.Priority == nil && r.AssigneeID == nil && r.DueDate == nil {
		return Errorf(CodeValidation, "provide at least one field to update")
	}
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return Errorf(CodeValidation, "title must not be empty")
	}
	if r.Priority != nil {
		p, err := NormalizePriority(string(*r.Priority))
		if err != nil {
			return err
		}
		*r.Priority = p
	}
	return nil
}

// TaskFilter narrows and paginates task listings. Zero values mean "no
// constraint". ViewerID restricts to tasks the given user created or is
// assigned to, for cross-project listings by non-admins.
type TaskFilter struct {
	ProjectID   string
	AssigneeID  string
	ViewerID    string
	Status      TaskStatus
	Priority    TaskPriority
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	Page        int
	Limit       int
}

func (f *TaskFilter) Validate() error {
	if f.Status != "" && !f.Status.Valid() {
		return Errorf(CodeValidation, "invalid status filter %q", string(f.Status))
	}
	if f.Priority != "" {
		p, err := NormalizePriority(string(f.Priority))
		if err != nil {
			return err
		}
		f.Priority = p
	}
	if f.DueDateFrom != nil && f.DueDateTo != nil && f.DueDateFrom.After(*f.DueDateTo) {
		return Errorf(CodeValidation, "dueDateFrom must not be after dueDateTo")
	}
	return nil
}

type UpdateUserRequest struct {
	Name *string     `json:"name" binding:"omitempty,min=2,max=120"`
	Role *SystemRole `json:"role" binding:"omitempty,oneof=ADMIN PROJECT_MANAGER USER"`
}

func (r *UpdateUserRequest) Validate() error {
	if r.Name == nil && r.Role == nil {
		return Errorf(CodeValidation, "provide at least one field to update")
	}
	if r.Role != nil && !r.Role.Valid() {
		return Errorf(CodeValidation, "invalid role %q", string(*r.Role))
	}
	return nil
}
