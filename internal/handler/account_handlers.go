package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/navid-fn/coinview/internal/account"
)

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AccountHandler struct {
	accountService *account.Service
}

func NewAccountHandler(service *account.Service) *AccountHandler {
	return &AccountHandler{
		accountService: service,
	}
}

func (h *AccountHandler) SignIn(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	sess, err := h.accountService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": sess.User, "expires_at": sess.ExpiresAt})
}

func (h *AccountHandler) SignUp(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	res, err := h.accountService.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user":                  res.User,
		"signed_in":             res.Session != nil,
		"confirmation_required": res.Session == nil,
	})
}

func (h *AccountHandler) SignOut(c *gin.Context) {
	if err := h.accountService.SignOut(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSession reports whether a user is signed in. Tokens never leave the process.
func (h *AccountHandler) GetSession(c *gin.Context) {
	sess, user := h.accountService.Current()
	if sess == nil {
		c.JSON(http.StatusOK, gin.H{"signed_in": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"signed_in":  true,
		"user":       user,
		"expires_at": sess.ExpiresAt,
	})
}
