package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"modsquad-api/models"
	"modsquad-api/services"
)

type AdminController struct {
	db     *gorm.DB
	images services.ImageStore
	logger *zap.Logger
}

func NewAdminController(db *gorm.DB, images services.ImageStore, logger *zap.Logger) *AdminController {
	return &AdminController{db: db, images: images, logger: logger}
}

func (adc *AdminController) GetUsers(c *gin.Context) {
	var users []models.User
	if err := adc.db.Preload("Profile").Order("created_at DESC").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, users)
}

func (adc *AdminController) GetStats(c *gin.Context) {
	var totalUsers, adminUsers, totalVehicles int64

	if err := adc.db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}
	if err := adc.db.Model(&models.User{}).Where("is_admin = ?", true).Count(&adminUsers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}
	if err := adc.db.Model(&models.Build{}).Count(&totalVehicles).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totalVehicles": totalVehicles,
		"regularUsers":  totalUsers - adminUsers,
	})
}

// DeleteUser removes a non-admin user together with their profile, builds and
// build images. Blobs are cleaned up best-effort after the transaction
// commits.
func (adc *AdminController) DeleteUser(c *gin.Context) {
	targetID := c.Param("userId")

	var target models.User
	if err := adc.db.Select("id", "is_admin").First(&target, "id = ?", targetID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if target.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot delete admin users"})
		return
	}

	var blobURLs []string
	err := adc.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Image{}).
			Joins("JOIN builds ON builds.id = images.build_id").
			Where("builds.user_id = ?", targetID).
			Pluck("images.url", &blobURLs).Error; err != nil {
			return err
		}

		if err := tx.Where("build_id IN (SELECT id FROM builds WHERE user_id = ?)", targetID).
			Delete(&models.Image{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Build{}, "user_id = ?", targetID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Profile{}, "user_id = ?", targetID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", targetID).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	for _, url := range blobURLs {
		if err := adc.images.Remove(url); err != nil {
			adc.logger.Warn("failed to delete image blob", zap.String("url", url), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
