package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func GetUser(c *gin.Context) {
	snap, ok := currentAccount(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snap)
}

type addressParams struct {
	Address string `json:"address" binding:"required" validate:"required,max=100"`
}

// SetWithdrawalAddress updates the account's primary withdrawal address.
func SetWithdrawalAddress(c *gin.Context) {
	snap, ok := currentAccount(c)
	if !ok {
		return
	}
	var p addressParams
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := Sessions(c).UpdateWithdrawalAddress(snap.Id, p.Address)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
