package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"freework/internal/apperr"
	"freework/internal/model"
)

func respondError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), apperr.Payload(err))
}

// identityFrom reads the authenticated identity the middleware stored.
func identityFrom(c *gin.Context) (model.Identity, bool) {
	userID, ok := c.Get("user_id")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return model.Identity{}, false
	}
	role, ok := c.Get("role")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return model.Identity{}, false
	}
	return model.Identity{UserID: userID.(int), Role: role.(string)}, true
}

func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}

func intQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}
