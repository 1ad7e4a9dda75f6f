package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stakevault/internal/api/jwt"
)

type signupParams struct {
	Email        string `json:"email" binding:"required" validate:"required,max=250"`
	Password     string `json:"password" binding:"required" validate:"required,max=100"`
	ReferralCode string `json:"referral_code" binding:"required" validate:"required,max=8"`
}

type signinParams struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func Signup(c *gin.Context) {
	var p signupParams
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := Sessions(c).SignUp(p.Email, p.Password, p.ReferralCode)
	if err != nil {
		fail(c, err)
		return
	}
	token, err := jwt.GenerateJWT(snap.Email, snap.IsAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":      snap,
		"is_signup": true,
		"jwt":       token,
	})
}

func Signin(c *gin.Context) {
	var p signinParams
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := Sessions(c).SignIn(p.Email, p.Password)
	if err != nil {
		fail(c, err)
		return
	}
	token, err := jwt.GenerateJWT(snap.Email, snap.IsAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":      snap,
		"is_signup": false,
		"is_admin":  snap.IsAdmin,
		"jwt":       token,
	})
}

func Signout(c *gin.Context) {
	email := c.GetString("email")
	if err := Sessions(c).SignOut(email); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
