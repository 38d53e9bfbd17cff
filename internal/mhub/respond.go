package mhub

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	auth "kyri56xcaesar/taskhub/internal/authmw"
	"kyri56xcaesar/taskhub/internal/contract"
)

func respondOK(c *gin.Context, status int, data any, message string) {
	c.JSON(status, contract.OK(data, message))
}

// respondErr maps any error onto the envelope through the taxonomy;
// unknown errors become INTERNAL and the detail stays in the logs.
func respondErr(c *gin.Context, err error) {
	code := contract.CodeOf(err)
	msg := err.Error()
	if code == contract.CodeInternal {
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		msg = "internal error"
	}
	c.JSON(code.Status(), contract.Fail(code, msg))
}

func respondBindErr(c *gin.Context) {
	c.JSON(http.StatusBadRequest, contract.Fail(contract.CodeValidation, "invalid input"))
}

// requester pulls the authenticated identity; the middleware guarantees
// it on secured routes.
func requester(c *gin.Context) (*contract.User, bool) {
	u, ok := auth.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, contract.Fail(contract.CodeAuth, "unauthorized"))
		return nil, false
	}
	return u, true
}
