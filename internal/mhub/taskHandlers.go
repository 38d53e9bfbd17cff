package mhub

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"kyri56xcaesar/taskhub/internal/contract"
)

func parseTaskFilter(c *gin.Context) (contract.TaskFilter, error) {
	page, limit := pageParams(c)
	f := contract.TaskFilter{
		ProjectID:  c.Query("projectId"),
		AssigneeID: c.Query("assigneeId"),
		Status:     contract.TaskStatus(c.Query("status")),
		Priority:   contract.TaskPriority(c.Query("priority")),
		Page:       page,
		Limit:      limit,
	}

	for q, dst := range map[string]**time.Time{
		"dueDateFrom": &f.DueDateFrom,
		"dueDateTo":   &f.DueDateTo,
	} {
		raw := c.Query(q)
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, contract.Errorf(contract.CodeValidation, "invalid %s, want RFC3339", q)
		}
		*dst = &ts
	}

	if err := f.Validate(); err != nil {
		return f, err
	}
	return f, nil
}

// authorizeTask runs the policy check for a project-scoped task, or a
// creator/assignee check for a loose one. Admins pass either way.
func authorizeTask(c *gin.Context, me *contract.User, t *contract.Task, op contract.Operation) bool {
	if t.ProjectID != nil {
		p, err := store.GetProject(c.Request.Context(), *t.ProjectID)
		if err != nil {
			respondErr(c, err)
			return false
		}
		if err := contract.Authorize(me, p, op); err != nil {
			respondErr(c, err)
			return false
		}
		return true
	}

	if me.Role == contract.RoleAdmin || t.CreatorID == me.ID ||
		(t.AssigneeID != nil && *t.AssigneeID == me.ID) {
		return true
	}

	respondErr(c, contract.Errorf(contract.CodeForbidden, "not your task"))
	return false
}

func handleListTasks(c *gin.Context) {
	me, ok := requester(c)
	if !ok {
		return
	}

	f, err := parseTaskFilter(c)
	if err != nil {
		respondErr(c, err)
		return
	}

	if f.ProjectID != "" {
		p, err := store.GetProject(c.Request.Context(), f.ProjectID)
		if err != nil {
			respondErr(c, err)
			return
		}
		if err := contract.Authorize(me, p, contract.OpViewTask); err != nil {
			respondErr(c, err)
			return
		}
	} else if me.Role != contract.RoleAdmin {
		// no project scope: only the caller's own tasks
		f.ViewerID = me.ID
	}

	items, total, err := store.ListTasks(c.Request.Context(), f)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, http.StatusOK, contract.NewPage(items, f.Page, f.Limit, total), "")
}

func handleCreateTask(c *gin.Context) {
	me, ok := requester(c)
	if !ok {
		return
	}

	var req contract.CreateTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindErr(c)
		return
	}
	if err := req.Validate(); err != nil {
		respondErr(c, err)
		return
	}

	if req.ProjectID != nil {
		p, err := store.GetProject(c.Request.Context(), *req.ProjectID)
		if err != nil {
			respondErr(c, err)
			return
		}
		if err := contract.Authorize(me, p, contract.OpCreateTask); err != nil {
			respondErr(c, err)
			return
		}
	}
	if req.AssigneeID != nil {
		if _, err := store.GetUserByID(c.Request.Context(), *req.AssigneeID); err != nil {
			respondErr(c, err)
			return
		}
	}

	t := &contract.Task{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      contract.StatusTodo,
		Priority:    req.Priority,
		ProjectID:   req.ProjectID,
		AssigneeID:  req.AssigneeID,
		CreatorID:   me.ID,
		DueDate:     req.DueDate,
	}
	if err := store.CreateTask(c.Request.Context(), t); err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, http.StatusCreated, t, "task created")
}

func handleViewTask(c *gin.Context) {
	me, ok := requester(c)
	if !ok {
		return
	}

	t, err := store.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if !authorizeTask(c, me, t, contract.OpViewTask) {
		return
	}

	respondOK(c, http.StatusOK, t, "")
}

func handleUpdateTask(c *gin.Context) {
	me, ok := requester(c)
	if !ok {
		return
	}

	t, err := store.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if !authorizeTask(c, me, t, contract.OpUpdateTask) {
		return
	}

	var req contract.UpdateTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindErr(c)
		return
	}
	if err := req.Validate(); err != nil {
		respondErr(c, err)
		return
	}

	if req.Title != nil {
		t.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.AssigneeID != nil {
		if *req.AssigneeID != "" {
			if _, err := store.GetUserByID(c.Request.Context(), *req.AssigneeID); err != nil {
				respondErr(c, err)
				return
			}
			t.AssigneeID = req.AssigneeID
		} else {
			t.AssigneeID = nil
		}
	}
	if req.DueDate != nil {
		t.DueDate = req.DueDate
	}
	if req.Status != nil {
		if err := t.ApplyStatus(*req.Status, time.Now().UTC()); err != nil {
			respondErr(c, err)
			return
		}
	}

	if err := store.UpdateTask(c.Request.Context(), t); err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, http.StatusOK, t, "task updated")
}

func handleDeleteTask(c *gin.Context) {
	me, ok := requester(c)
	if !ok {
		return
	}

	t, err := store.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if !authorizeTask(c, me, t, contract.OpDeleteTask) {
		return
	}

	if err := store.DeleteTask(c.Request.Context(), t.ID); err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"id": t.ID}, "task deleted")
}
