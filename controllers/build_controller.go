package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"modsquad-api/repositories"
	"modsquad-api/services"
	"modsquad-api/storage"
	"modsquad-api/utils"
)

// BuildController is the HTTP surface over the build lifecycle manager. All
// handlers except GetPublicBuilds run behind the auth middleware.
type BuildController struct {
	builds *services.BuildService
}

func NewBuildController(builds *services.BuildService) *BuildController {
	return &BuildController{builds: builds}
}

func (bc *BuildController) GetBuilds(c *gin.Context) {
	userID := c.GetString("user_id")

	builds, err := bc.builds.ListMine(userID)
	if err != nil {
		bc.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, builds)
}

func (bc *BuildController) GetPublicBuilds(c *gin.Context) {
	builds, err := bc.builds.ListPublic()
	if err != nil {
		bc.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, builds)
}

func (bc *BuildController) GetBuild(c *gin.Context) {
	userID := c.GetString("user_id")
	buildID := c.Param("id")

	build, err := bc.builds.Get(buildID, userID)
	if err != nil {
		bc.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, build)
}

func (bc *BuildController) CreateBuild(c *gin.Context) {
	userID := c.GetString("user_id")

	form, err := c.MultipartForm()
	if err != nil {
		utils.SendValidationError(c, "multipart form data is required")
		return
	}

	fields := repositories.BuildFields{
		Title:       c.DefaultPostForm("title", "New Build"),
		Description: c.DefaultPostForm("description", "My vehicle build"),
		CarMake:     c.DefaultPostForm("carMake", "Unknown"),
		CarModel:    c.DefaultPostForm("carModel", "Unknown"),
		CarYear:     time.Now().Year(),
	}
	if raw := c.PostForm("carYear"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil || !utils.IsValidCarYear(year) {
			utils.SendValidationError(c, "carYear must be a valid model year")
			return
		}
		fields.CarYear = year
	}

	build, err := bc.builds.Create(userID, fields, storage.FromFileHeaders(form.File["images"]))
	if err != nil {
		bc.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, build)
}

func (bc *BuildController) UpdateBuild(c *gin.Context) {
	userID := c.GetString("user_id")
	buildID := c.Param("id")

	form, err := c.MultipartForm()
	if err != nil {
		utils.SendValidationError(c, "multipart form data is required")
		return
	}

	// Only keys present in the form are merged; a key that is present but
	// empty overwrites the stored value.
	var update repositories.BuildUpdate
	if vals, ok := form.Value["title"]; ok && len(vals) > 0 {
		update.Title = &vals[0]
	}
	if vals, ok := form.Value["description"]; ok && len(vals) > 0 {
		update.Description = &vals[0]
	}
	if vals, ok := form.Value["carMake"]; ok && len(vals) > 0 {
		update.CarMake = &vals[0]
	}
	if vals, ok := form.Value["carModel"]; ok && len(vals) > 0 {
		update.CarModel = &vals[0]
	}
	if vals, ok := form.Value["carYear"]; ok && len(vals) > 0 && vals[0] != "" {
		year, err := strconv.Atoi(vals[0])
		if err != nil || !utils.IsValidCarYear(year) {
			utils.SendValidationError(c, "carYear must be a valid model year")
			return
		}
		update.CarYear = &year
	}

	build, err := bc.builds.Update(buildID, userID, update, storage.FromFileHeaders(form.File["images"]))
	if err != nil {
		bc.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, build)
}

func (bc *BuildController) DeleteBuild(c *gin.Context) {
	userID := c.GetString("user_id")
	buildID := c.Param("id")

	if err := bc.builds.Delete(buildID, userID); err != nil {
		bc.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Build deleted successfully"})
}

func (bc *BuildController) DeleteImage(c *gin.Context) {
	userID := c.GetString("user_id")
	buildID := c.Param("id")
	imageID := c.Param("imageId")

	build, err := bc.builds.RemoveImage(buildID, userID, imageID)
	if err != nil {
		bc.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, build)
}

// respondError maps the lifecycle error taxonomy onto HTTP statuses.
func (bc *BuildController) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		utils.SendError(c, http.StatusNotFound, "Build not found")
	case errors.Is(err, repositories.ErrNoImages):
		utils.SendError(c, http.StatusBadRequest, "At least one image is required")
	case errors.Is(err, repositories.ErrLastImage):
		utils.SendError(c, http.StatusBadRequest, "Cannot delete the last image. A build must have at least one image.")
	case errors.Is(err, services.ErrTooManyImages):
		utils.SendError(c, http.StatusBadRequest, "Too many images for this build")
	case errors.Is(err, storage.ErrInvalidMediaType):
		utils.SendError(c, http.StatusBadRequest, "Invalid file type. Only JPEG, PNG and GIF are allowed.")
	case errors.Is(err, storage.ErrPayloadTooLarge):
		utils.SendError(c, http.StatusRequestEntityTooLarge, "Image exceeds the maximum allowed size")
	default:
		utils.SendError(c, http.StatusInternalServerError, "Internal server error")
	}
}
