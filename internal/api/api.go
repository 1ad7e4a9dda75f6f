package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stakevault/internal/stakeapi"
)

// Sessions pulls the controller the router planted on the context.
func Sessions(c *gin.Context) *stakeapi.Sessions {
	return c.MustGet("sessions").(*stakeapi.Sessions)
}

// currentAccount resolves the authenticated account from the jwt email claim.
func currentAccount(c *gin.Context) (stakeapi.Snapshot, bool) {
	email := c.GetString("email")
	snap, err := Sessions(c).SnapshotByEmail(email)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid jwt"})
		return stakeapi.Snapshot{}, false
	}
	return snap, true
}

// fail maps the error taxonomy onto status codes.
func fail(c *gin.Context, err error) {
	var v *stakeapi.ValidationError
	if errors.As(err, &v) {
		c.JSON(http.StatusBadRequest, gin.H{"error": v.Reason})
		return
	}
	if errors.Is(err, stakeapi.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
