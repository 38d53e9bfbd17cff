package mhub

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"kyri56xcaesar/taskhub/internal/contract"
)

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(contract.DefaultPageLimit)))
	return page, limit
}

// loadAuthorized fetches the project behind :id and runs the policy
// check for op. Denials come back 403, a missing project 404.
func loadAuthorized(c *gin.Context, op contract.Operation) (*contract.User, *contract.Project, bool) {
	me, ok := requester(c)
	if !ok {
		return nil, nil, false
	}

	p, err := store.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return nil, nil, false
	}

	if err := contract.Authorize(me, p, op); err != nil {
		respondErr(c, err)
		return nil, nil, false
	}

	return me, p, true
}

func handleListProjects(c *gin.Context) {
	me, ok := requester(c)
	if !ok {
		return
	}

	page, limit := pageParams(c)
	items, total, err := store.ListProjects(c.Request.Context(), me, page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, http.StatusOK, contract.NewPage(items, page, limit, total), "")
}

func handleCreateProject(c *gin.Context) {
	me, ok := requester(c)
	if !ok {
		return
	}

	var req contract.CreateProjectRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindErr(c)
		return
	}
	if err := req.Validate(); err != nil {
		respondErr(c, err)
		return
	}

	p := &contract.Project{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     me.ID,
		Visibility:  req.Visibility,
		Deadline:    req.Deadline,
	}
	if err := store.CreateProject(c.Request.Context(), p); err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, http.StatusCreated, p, "project created")
}

func handleViewProject(c *gin.Context) {
	_, p, ok := loadAuthorized(c, contract.OpViewProject)
	if !ok {
		return
	}

	respondOK(c, http.StatusOK, p, "")
}

func handleUpdateProject(c *gin.Context) {
	_, p, ok := loadAuthorized(c, contract.OpUpdateProject)
	if !ok {
		return
	}

	var req contract.UpdateProjectRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindErr(c)
		return
	}
	if err := req.Validate(); err != nil {
		respondErr(c, err)
		return
	}

	updated, err := store.UpdateProject(c.Request.Context(), p.ID, req)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, http.StatusOK, updated, "project updated")
}

func handleDeleteProject(c *gin.Context) {
	_, p, ok := loadAuthorized(c, contract.OpDeleteProject)
	if !ok {
		return
	}

	if err := store.DeleteProject(c.Request.Context(), p.ID); err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"id": p.ID}, "project deleted")
}

// --- members ---

func handleListMembers(c *gin.Context) {
	_, p, ok := loadAuthorized(c, contract.OpListMembers)
	if !ok {
		return
	}

	members, err := store.ListMembers(c.Request.Context(), p.ID)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, http.StatusOK, members, "")
}

func handleAddMember(c *gin.Context) {
	_, p, ok := loadAuthorized(c, contract.OpAddMember)
	if !ok {
		return
	}

	var req contract.AddMemberRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindErr(c)
		return
	}
	if err := req.Validate(); err != nil {
		respondErr(c, err)
		return
	}

	// the member row must reference a real account
	if _, err := store.GetUserByID(c.Request.Context(), req.UserID); err != nil {
		respondErr(c, err)
		return
	}

	m := &contract.ProjectMember{
		ProjectID: p.ID,
		UserID:    req.UserID,
		Role:      req.Role,
	}
	if err := store.AddMember(c.Request.Context(), m); err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, http.StatusOK, m, "member added")
}

func handleUpdateMemberRole(c *gin.Context) {
	_, p, ok := loadAuthorized(c, contract.OpUpdateMemberRole)
	if !ok {
		return
	}

	var req contract.UpdateMemberRoleRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindErr(c)
		return
	}
	if err := req.Validate(); err != nil {
		respondErr(c, err)
		return
	}

	m, err := store.UpdateMemberRole(c.Request.Context(), p.ID, c.Param("userId"), req.Role)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, http.StatusOK, m, "member role updated")
}

func handleRemoveMember(c *gin.Context) {
	_, p, ok := loadAuthorized(c, contract.OpRemoveMember)
	if !ok {
		return
	}

	if err := store.RemoveMember(c.Request.Context(), p.ID, c.Param("userId")); err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"projectId": p.ID, "userId": c.Param("userId")}, "member removed")
}
