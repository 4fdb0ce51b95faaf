package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/navid-fn/coinview/internal/account"
	"github.com/navid-fn/coinview/internal/avatar"
	"github.com/navid-fn/coinview/internal/models"
)

type profileRequest struct {
	Username   string `json:"username" binding:"required"`
	FullName   string `json:"full_name"`
	AvatarPath string `json:"avatar_url"`
}

type profileResponse struct {
	Profile     *models.Profile `json:"profile"`
	DisplayName string          `json:"display_name"`
	AvatarURL   string          `json:"avatar_public_url,omitempty"`
}

type ProfileHandler struct {
	accountService *account.Service
	avatarFlow     *avatar.Flow
}

func NewProfileHandler(accountService *account.Service, avatarFlow *avatar.Flow) *ProfileHandler {
	return &ProfileHandler{
		accountService: accountService,
		avatarFlow:     avatarFlow,
	}
}

// GetProfile returns the signed-in user's profile. A missing row is a 404 with a null profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.accountService.GetProfile(c.Request.Context())
	if errors.Is(err, account.ErrProfileNotFound) {
		c.JSON(http.StatusNotFound, profileResponse{DisplayName: profile.DisplayName()})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profileResponse{
		Profile:     profile,
		DisplayName: profile.DisplayName(),
		AvatarURL:   h.avatarFlow.Resolve(profile.AvatarPath),
	})
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	if err := h.accountService.UpdateProfile(c.Request.Context(), req.Username, req.FullName, req.AvatarPath); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadAvatar takes a multipart "file" and runs the avatar flow. The profile
// row is not touched; the client saves the returned path with its next update.
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	// No file means the user backed out of the picker.
	file, _ := c.FormFile("file")

	path, err := h.avatarFlow.Run(c.Request.Context(), avatar.MultipartPicker{File: file})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"path": path, "url": h.avatarFlow.URL()})
}

func (h *ProfileHandler) GetAvatarURL(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		respondError(c, fmt.Errorf("%w: path is required", errBadRequest))
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path, "url": h.avatarFlow.PublicURL(path)})
}
