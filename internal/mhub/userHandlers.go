package mhub

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kyri56xcaesar/taskhub/internal/contract"
)

func handleListUsers(c *gin.Context) {
	page, limit := pageParams(c)

	items, total, err := store.ListUsers(c.Request.Context(), page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, http.StatusOK, contract.NewPage(items, page, limit, total), "")
}

func handleGetUser(c *gin.Context) {
	me, ok := requester(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if me.Role != contract.RoleAdmin && me.ID != id {
		respondErr(c, contract.Errorf(contract.CodeForbidden, "not your account"))
		return
	}

	u, err := store.GetUserByID(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, http.StatusOK, u, "")
}

func handleUpdateUser(c *gin.Context) {
	me, ok := requester(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if me.Role != contract.RoleAdmin && me.ID != id {
		respondErr(c, contract.Errorf(contract.CodeForbidden, "not your account"))
		return
	}

	var req contract.UpdateUserRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindErr(c)
		return
	}
	if err := req.Validate(); err != nil {
		respondErr(c, err)
		return
	}

	// the system role only moves through the admin path
	if req.Role != nil && me.Role != contract.RoleAdmin {
		respondErr(c, contract.Errorf(contract.CodeForbidden, "role changes are admin-only"))
		return
	}

	u, err := store.UpdateUser(c.Request.Context(), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, http.StatusOK, u, "user updated")
}
