package mhub

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyri56xcaesar/taskhub/internal/contract"
)

func createProject(t *testing.T, bearer string, req contract.CreateProjectRequest) contract.Project {
	t.Helper()

	w := doJSON(t, "POST", "/api/v1/projects", bearer, req)
	require.Equal(t, http.StatusCreated, w.Code)
	return decodeData[contract.Project](t, w)
}

// The membership lifecycle end to end: a PRIVATE project is invisible
// to outsiders, a VIEWER grant opens reads but not task writes.
func TestPrivateProjectMembershipFlow(t *testing.T) {
	newTestAPI(t)
	_, bearerA := seedUser(t, "alice@example.com", contract.RoleUser)
	userB, bearerB := seedUser(t, "bob@example.com", contract.RoleUser)

	p := createProject(t, bearerA, contract.CreateProjectRequest{
		Name:       "skunkworks",
		Visibility: contract.VisibilityPrivate,
	})

	// B is not a member: 403, not 404
	w := doJSON(t, "GET", "/api/v1/projects/"+p.ID, bearerB, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, string(contract.CodeForbidden), env.Error)

	// owner grants VIEWER
	w = doJSON(t, "POST", "/api/v1/projects/"+p.ID+"/members", bearerA, contract.AddMemberRequest{
		UserID: userB.ID,
		Role:   contract.RoleViewer,
	})
	require.Equal(t, http.StatusOK, w.Code)
	m := decodeData[contract.ProjectMember](t, w)
	assert.Equal(t, contract.RoleViewer, m.Role)

	// B can read now
	w = doJSON(t, "GET", "/api/v1/projects/"+p.ID, bearerB, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeData[contract.Project](t, w)
	assert.Len(t, got.Members, 1)

	// ...but stays read-only for tasks
	w = doJSON(t, "POST", "/api/v1/tasks", bearerB, contract.CreateTaskRequest{
		Title:     "sneaky",
		ProjectID: &p.ID,
	})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestAddMemberValidation(t *testing.T) {
	newTestAPI(t)
	_, bearerA := seedUser(t, "alice@example.com", contract.RoleUser)
	userB, _ := seedUser(t, "bob@example.com", contract.RoleUser)

	p := createProject(t, bearerA, contract.CreateProjectRequest{Name: "apollo"})

	// unknown user: 404
	w := doJSON(t, "POST", "/api/v1/projects/"+p.ID+"/members", bearerA, contract.AddMemberRequest{
		UserID: "u-ghost",
		Role:   contract.RoleViewer,
	})
	require.Equal(t, http.StatusNotFound, w.Code)

	// first add succeeds, second one conflicts
	w = doJSON(t, "POST", "/api/v1/projects/"+p.ID+"/members", bearerA, contract.AddMemberRequest{
		UserID: userB.ID,
		Role:   contract.RoleCollaborator,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, "POST", "/api/v1/projects/"+p.ID+"/members", bearerA, contract.AddMemberRequest{
		UserID: userB.ID,
		Role:   contract.RoleViewer,
	})
	require.Equal(t, http.StatusConflict, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, string(contract.CodeConflict), env.Error)
}

func TestUpdateMemberRoleIdempotent(t *testing.T) {
	newTestAPI(t)
	_, bearerA := seedUser(t, "alice@example.com", contract.RoleUser)
	userB, _ := seedUser(t, "bob@example.com", contract.RoleUser)

	p := createProject(t, bearerA, contract.CreateProjectRequest{Name: "apollo"})
	w := doJSON(t, "POST", "/api/v1/projects/"+p.ID+"/members", bearerA, contract.AddMemberRequest{
		UserID: userB.ID,
		Role:   contract.RoleViewer,
	})
	require.Equal(t, http.StatusOK, w.Code)

	target := fmt.Sprintf("/api/v1/projects/%s/members/%s", p.ID, userB.ID)

	w = doJSON(t, "PUT", target, bearerA, contract.UpdateMemberRoleRequest{Role: contract.RoleManager})
	require.Equal(t, http.StatusOK, w.Code)
	first := decodeData[contract.ProjectMember](t, w)

	w = doJSON(t, "PUT", target, bearerA, contract.UpdateMemberRoleRequest{Role: contract.RoleManager})
	require.Equal(t, http.StatusOK, w.Code)
	second := decodeData[contract.ProjectMember](t, w)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Role, second.Role)
	assert.Equal(t, first.JoinAt, second.JoinAt)
}

func TestRemoveMember(t *testing.T) {
	newTestAPI(t)
	_, bearerA := seedUser(t, "alice@example.com", contract.RoleUser)
	userB, bearerB := seedUser(t, "bob@example.com", contract.RoleUser)

	p := createProject(t, bearerA, contract.CreateProjectRequest{Name: "apollo"})
	w := doJSON(t, "POST", "/api/v1/projects/"+p.ID+"/members", bearerA, contract.AddMemberRequest{
		UserID: userB.ID,
		Role:   contract.RoleViewer,
	})
	require.Equal(t, http.StatusOK, w.Code)

	target := fmt.Sprintf("/api/v1/projects/%s/members/%s", p.ID, userB.ID)
	w = doJSON(t, "DELETE", target, bearerA, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// access is gone with the membership
	w = doJSON(t, "GET", "/api/v1/projects/"+p.ID, bearerB, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, "DELETE", target, bearerA, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListMembersEmptyCollection(t *testing.T) {
	newTestAPI(t)
	_, bearer := seedUser(t, "alice@example.com", contract.RoleUser)

	p := createProject(t, bearer, contract.CreateProjectRequest{Name: "loners"})

	// a member-less project yields an empty array, never null
	w := doJSON(t, "GET", "/api/v1/projects/"+p.ID+"/members", bearer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	require.True(t, env.Success)
	assert.Equal(t, "[]", string(env.Data))

	members := decodeData[[]contract.ProjectMember](t, w)
	assert.NotNil(t, members)
	assert.Len(t, members, 0)
}

func TestListProjectsVisibility(t *testing.T) {
	newTestAPI(t)
	_, bearerMe := seedUser(t, "me@example.com", contract.RoleUser)
	_, bearerOther := seedUser(t, "other@example.com", contract.RoleUser)

	// one owned private project
	createProject(t, bearerMe, contract.CreateProjectRequest{Name: "mine", Visibility: contract.VisibilityPrivate})
	// five public projects owned by someone else
	for i := 0; i < 5; i++ {
		createProject(t, bearerOther, contract.CreateProjectRequest{
			Name:       fmt.Sprintf("pub-%d", i),
			Visibility: contract.VisibilityPublic,
		})
	}
	// private noise owned by someone else
	for i := 0; i < 3; i++ {
		createProject(t, bearerOther, contract.CreateProjectRequest{
			Name:       fmt.Sprintf("priv-%d", i),
			Visibility: contract.VisibilityPrivate,
		})
	}

	w := doJSON(t, "GET", "/api/v1/projects", bearerMe, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodeData[contract.Page[contract.Project]](t, w)
	assert.Equal(t, 6, page.Pagination.Total)
	assert.Len(t, page.Data, 6)
}

func TestUpdateProjectManagerOnly(t *testing.T) {
	newTestAPI(t)
	_, bearerA := seedUser(t, "alice@example.com", contract.RoleUser)
	userB, bearerB := seedUser(t, "bob@example.com", contract.RoleUser)

	p := createProject(t, bearerA, contract.CreateProjectRequest{Name: "apollo", Visibility: contract.VisibilityPublic})

	// PUBLIC grants reads, not writes
	name := "renamed"
	w := doJSON(t, "PUT", "/api/v1/projects/"+p.ID, bearerB, contract.UpdateProjectRequest{Name: &name})
	require.Equal(t, http.StatusForbidden, w.Code)

	// a collaborator still cannot manage the project
	doJSON(t, "POST", "/api/v1/projects/"+p.ID+"/members", bearerA, contract.AddMemberRequest{
		UserID: userB.ID, Role: contract.RoleCollaborator,
	})
	w = doJSON(t, "PUT", "/api/v1/projects/"+p.ID, bearerB, contract.UpdateProjectRequest{Name: &name})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, "PUT", "/api/v1/projects/"+p.ID, bearerA, contract.UpdateProjectRequest{Name: &name})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeData[contract.Project](t, w)
	assert.Equal(t, "renamed", updated.Name)
}

func TestDeleteProjectCascadesMembers(t *testing.T) {
	newTestAPI(t)
	_, bearerA := seedUser(t, "alice@example.com", contract.RoleUser)
	userB, _ := seedUser(t, "bob@example.com", contract.RoleUser)

	p := createProject(t, bearerA, contract.CreateProjectRequest{Name: "doomed"})
	w := doJSON(t, "POST", "/api/v1/projects/"+p.ID+"/members", bearerA, contract.AddMemberRequest{
		UserID: userB.ID, Role: contract.RoleViewer,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, "DELETE", "/api/v1/projects/"+p.ID, bearerA, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, err := store.GetProject(context.Background(), p.ID)
	require.Error(t, err)
	assert.Equal(t, contract.CodeNotFound, contract.CodeOf(err))

	ms := store.(*MemStore)
	ms.mu.Lock()
	defer ms.mu.Unlock()
	assert.Empty(t, ms.members[p.ID])
}

func TestAdminBypass(t *testing.T) {
	newTestAPI(t)
	_, bearerA := seedUser(t, "alice@example.com", contract.RoleUser)
	_, bearerAdmin := seedUser(t, "root@example.com", contract.RoleAdmin)

	p := createProject(t, bearerA, contract.CreateProjectRequest{Name: "hidden", Visibility: contract.VisibilityPrivate})

	w := doJSON(t, "GET", "/api/v1/projects/"+p.ID, bearerAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	name := "seized"
	w = doJSON(t, "PUT", "/api/v1/projects/"+p.ID, bearerAdmin, contract.UpdateProjectRequest{Name: &name})
	require.Equal(t, http.StatusOK, w.Code)
}
