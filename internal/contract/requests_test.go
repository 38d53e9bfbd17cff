package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTaskRequestValidate(t *testing.T) {
	req := CreateTaskRequest{Title: "ship it"}
	require.NoError(t, req.Validate())
	assert.Equal(t, PriorityMedium, req.Priority)

	req = CreateTaskRequest{Title: "legacy", Priority: "high"}
	require.NoError(t, req.Validate())
	assert.Equal(t, PriorityHigh, req.Priority)

	req = CreateTaskRequest{Title: "   "}
	err := req.Validate()
	require.Error(t, err)
	assert.Equal(t, CodeValidation, CodeOf(err))

	req = CreateTaskRequest{Title: "x", Priority: "critical"}
	require.Error(t, req.Validate())
}

func TestUpdateTaskRequestValidate(t *testing.T) {
	var empty UpdateTaskRequest
	err := empty.Validate()
	require.Error(t, err)
	assert.Equal(t, CodeValidation, CodeOf(err))

	title := "renamed"
	require.NoError(t, (&UpdateTaskRequest{Title: &title}).Validate())

	legacy := TaskPriority("low")
	req := UpdateTaskRequest{Priority: &legacy}
	require.NoError(t, req.Validate())
	assert.Equal(t, PriorityLow, *req.Priority)

	blank := "  "
	require.Error(t, (&UpdateTaskRequest{Title: &blank}).Validate())
}

func TestTaskFilterValidate(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	f := TaskFilter{DueDateFrom: &from, DueDateTo: &to}
	require.NoError(t, f.Validate())

	f = TaskFilter{DueDateFrom: &to, DueDateTo: &from}
	err := f.Validate()
	require.Error(t, err)
	assert.Equal(t, CodeValidation, CodeOf(err))

	f = TaskFilter{Status: "DONE"}
	require.Error(t, f.Validate())

	f = TaskFilter{Priority: "high"}
	require.NoError(t, f.Validate())
	assert.Equal(t, PriorityHigh, f.Priority)
}

func TestProjectRequestValidate(t *testing.T) {
	req := CreateProjectRequest{Name: "apollo"}
	require.NoError(t, req.Validate())
	// visibility defaults private
	assert.Equal(t, VisibilityPrivate, req.Visibility)

	var empty UpdateProjectRequest
	require.Error(t, empty.Validate())

	vis := VisibilityPublic
	require.NoError(t, (&UpdateProjectRequest{Visibility: &vis}).Validate())
}

func TestMemberRequestValidate(t *testing.T) {
	require.NoError(t, (&AddMemberRequest{UserID: "u-1", Role: RoleViewer}).Validate())

	err := (&AddMemberRequest{UserID: "u-1", Role: "OWNER"}).Validate()
	require.Error(t, err)
	assert.Equal(t, CodeValidation, CodeOf(err))

	require.NoError(t, (&UpdateMemberRoleRequest{Role: RoleManager}).Validate())
	require.Error(t, (&UpdateMemberRoleRequest{Role: ""}).Validate())
}

func TestUpdateUserRequestValidate(t *testing.T) {
	var empty UpdateUserRequest
	require.Error(t, empty.Validate())

	role := RoleProjectManager
	require.NoError(t, (&UpdateUserRequest{Role: &role}).Validate())

	bogus := SystemRole("ROOT")
	require.Error(t, (&UpdateUserRequest{Role: &bogus}).Validate())
}
