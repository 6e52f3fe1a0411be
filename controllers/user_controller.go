package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"modsquad-api/models"
	"modsquad-api/storage"
	"modsquad-api/utils"
)

type UserController struct {
	db             *gorm.DB
	store          *storage.DiskStore
	maxAvatarBytes int64
	logger         *zap.Logger
}

func NewUserController(db *gorm.DB, store *storage.DiskStore, maxAvatarBytes int64, logger *zap.Logger) *UserController {
	return &UserController{
		db:             db,
		store:          store,
		maxAvatarBytes: maxAvatarBytes,
		logger:         logger,
	}
}

func (uc *UserController) GetCurrentUser(c *gin.Context) {
	userID := c.GetString("user_id")

	var user models.User
	if err := uc.db.Preload("Profile").First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	user.Password = ""
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type UpdateProfileRequest struct {
	Bio          *string `json:"bio"`
	Location     *string `json:"location"`
	AvatarURL    *string `json:"avatar_url"`
	InstagramURL *string `json:"instagram_url"`
	FacebookURL  *string `json:"facebook_url"`
	YoutubeURL   *string `json:"youtube_url"`
}

// UpdateProfile merges only the fields present in the request body.
func (uc *UserController) UpdateProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if req.InstagramURL != nil {
		updates["instagram_url"] = *req.InstagramURL
	}
	if req.FacebookURL != nil {
		updates["facebook_url"] = *req.FacebookURL
	}
	if req.YoutubeURL != nil {
		updates["youtube_url"] = *req.YoutubeURL
	}

	if len(updates) > 0 {
		if err := uc.db.Model(&models.Profile{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}
	}

	var user models.User
	if err := uc.db.Preload("Profile").First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	user.Password = ""
	c.JSON(http.StatusOK, gin.H{"user": user, "profile": user.Profile})
}

// UploadAvatar stores an avatar blob and points the caller's profile at it.
// If the profile update fails the stored blob is deleted again.
func (uc *UserController) UploadAvatar(c *gin.Context) {
	userID := c.GetString("user_id")

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	avatarURL, err := uc.store.SaveAvatar(storage.FromFileHeader(fileHeader), uc.maxAvatarBytes)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidMediaType):
			utils.SendError(c, http.StatusBadRequest, "Invalid file type. Only JPEG, PNG and GIF are allowed.")
		case errors.Is(err, storage.ErrPayloadTooLarge):
			utils.SendError(c, http.StatusRequestEntityTooLarge, "Avatar exceeds the maximum allowed size")
		default:
			utils.SendError(c, http.StatusInternalServerError, "Failed to upload avatar")
		}
		return
	}

	err = uc.db.Model(&models.Profile{}).Where("user_id = ?", userID).
		Update("avatar_url", avatarURL).Error
	if err != nil {
		if cleanupErr := uc.store.Remove(avatarURL); cleanupErr != nil {
			uc.logger.Warn("failed to clean up avatar blob", zap.String("url", avatarURL), zap.Error(cleanupErr))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update avatar"})
		return
	}

	var user models.User
	if err := uc.db.Preload("Profile").First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	user.Password = ""
	c.JSON(http.StatusOK, gin.H{"user": user, "profile": user.Profile, "url": avatarURL})
}
