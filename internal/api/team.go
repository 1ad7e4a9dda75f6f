package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func GetReferrals(c *gin.Context) {
	acc, ok := currentAccount(c)
	if !ok {
		return
	}
	referrals, err := Sessions(c).Referrals(acc.Id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(referrals), "results": referrals})
}

func GetTeam(c *gin.Context) {
	acc, ok := currentAccount(c)
	if !ok {
		return
	}
	downline, err := Sessions(c).Downline(acc.Id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"downline": downline})
}

func AnalyzeTeam(c *gin.Context) {
	acc, ok := currentAccount(c)
	if !ok {
		return
	}
	analysis, err := Sessions(c).AnalyzeTeam(c.Request.Context(), acc.Id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func GetPriorityMessage(c *gin.Context) {
	acc, ok := currentAccount(c)
	if !ok {
		return
	}
	message, err := Sessions(c).PriorityMessage(c.Request.Context(), acc.Id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, message)
}

func GetAnnouncements(c *gin.Context) {
	acc, ok := currentAccount(c)
	if !ok {
		return
	}
	unread, err := Sessions(c).UnreadAnnouncements(acc.Id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(unread), "results": unread})
}

func MarkAnnouncementRead(c *gin.Context) {
	acc, ok := currentAccount(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid announcement id"})
		return
	}
	if err := Sessions(c).MarkAnnouncementRead(acc.Id, uint(id)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
