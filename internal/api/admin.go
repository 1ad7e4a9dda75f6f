package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stakevault/internal/stakeapi"
)

func GetPendingRequests(c *gin.Context) {
	requests, err := Sessions(c).PendingRequests()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": requests})
}

func ApproveDeposit(c *gin.Context) {
	snap, err := Sessions(c).ApproveDeposit(c.Param("txid"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": snap})
}

func DeclineDeposit(c *gin.Context) {
	snap, err := Sessions(c).DeclineDeposit(c.Param("txid"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": snap})
}

func ApproveWithdrawal(c *gin.Context) {
	snap, err := Sessions(c).ApproveWithdrawal(c.Param("txid"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": snap})
}

func DeclineWithdrawal(c *gin.Context) {
	snap, err := Sessions(c).DeclineWithdrawal(c.Param("txid"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": snap})
}

func accountIdParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return 0, false
	}
	return uint(id), true
}

type adjustBalanceParams struct {
	Delta  float64 `json:"delta" binding:"required"`
	Reason string  `json:"reason" validate:"max=250"`
}

func AdjustBalance(c *gin.Context) {
	id, ok := accountIdParam(c)
	if !ok {
		return
	}
	var p adjustBalanceParams
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := Sessions(c).AdjustBalance(id, p.Delta, p.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": snap})
}

type adjustLevelParams struct {
	Level uint `json:"level"`
}

func AdjustLevel(c *gin.Context) {
	id, ok := accountIdParam(c)
	if !ok {
		return
	}
	var p adjustLevelParams
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := Sessions(c).AdjustLevel(id, p.Level)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": snap})
}

type updateEmailParams struct {
	Email string `json:"email" binding:"required" validate:"required,max=250"`
}

func UpdateEmail(c *gin.Context) {
	id, ok := accountIdParam(c)
	if !ok {
		return
	}
	var p updateEmailParams
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := Sessions(c).UpdateEmail(id, p.Email)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": snap})
}

func UpdateWithdrawalAddress(c *gin.Context) {
	id, ok := accountIdParam(c)
	if !ok {
		return
	}
	var p addressParams
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := Sessions(c).UpdateWithdrawalAddress(id, p.Address)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": snap})
}

type announceParams struct {
	Message string `json:"message" binding:"required" validate:"required,max=500"`
}

func Announce(c *gin.Context) {
	id, ok := accountIdParam(c)
	if !ok {
		return
	}
	var p announceParams
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := Sessions(c).Announce(id, p.Message); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// GetSettings returns the live runtime config.
func GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, Sessions(c).Config())
}

// UpdateSettings replaces the runtime config and rewrites the Redis cache
// when one is wired.
func UpdateSettings(c *gin.Context) {
	var cfg stakeapi.AppConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sessions := Sessions(c)
	sessions.ReplaceConfig(&cfg)
	if app, ok := c.Get("app"); ok {
		if a, ok := app.(*stakeapi.App); ok && a.Rdb != nil {
			if err := stakeapi.StoreAppConfig(c, a.Rdb, &cfg); err != nil {
				fail(c, err)
				return
			}
		}
	}
	c.JSON(http.StatusOK, sessions.Config())
}
