package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"modsquad-api/models"
)

// BuildRepository persists builds and their child image records. All writes
// touching multiple rows run inside one transaction; lookups taking an
// ownerID are scoped to it and report ErrNotFound on any mismatch.
type BuildRepository struct {
	db *gorm.DB
}

func NewBuildRepository(db *gorm.DB) *BuildRepository {
	return &BuildRepository{db: db}
}

// Create inserts a build together with its image rows.
func (r *BuildRepository) Create(ownerID string, fields BuildFields, imageURLs []string) (*models.Build, error) {
	if len(imageURLs) == 0 {
		return nil, ErrNoImages
	}

	build := models.Build{
		ID:          uuid.New().String(),
		UserID:      ownerID,
		Title:       fields.Title,
		Description: fields.Description,
		CarMake:     fields.CarMake,
		CarModel:    fields.CarModel,
		CarYear:     fields.CarYear,
		Images:      make([]models.Image, 0, len(imageURLs)),
	}
	for _, url := range imageURLs {
		build.Images = append(build.Images, models.Image{
			ID:  uuid.New().String(),
			URL: url,
		})
	}

	if err := r.db.Create(&build).Error; err != nil {
		return nil, fmt.Errorf("failed to create build: %w", err)
	}

	return &build, nil
}

// FindByID loads one build with its images. An empty ownerID skips the
// ownership scope (public lookup).
func (r *BuildRepository) FindByID(id, ownerID string) (*models.Build, error) {
	query := r.db.Preload("Images", imagesByCreation)
	if ownerID != "" {
		query = query.Where("user_id = ?", ownerID)
	}

	var build models.Build
	if err := query.First(&build, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch build: %w", err)
	}
	return &build, nil
}

// ListByOwner returns the owner's builds, most recent first.
func (r *BuildRepository) ListByOwner(ownerID string) ([]models.Build, error) {
	var builds []models.Build
	err := r.db.Preload("Images", imagesByCreation).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&builds).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch builds: %w", err)
	}
	return builds, nil
}

// ListPublic returns every build with its owner's display fields joined in,
// most recent first.
func (r *BuildRepository) ListPublic() ([]models.PublicBuild, error) {
	var builds []models.Build
	err := r.db.Preload("Images", imagesByCreation).
		Preload("User.Profile").
		Order("created_at DESC").
		Find(&builds).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch public builds: %w", err)
	}

	feed := make([]models.PublicBuild, 0, len(builds))
	for _, build := range builds {
		owner := models.BuildOwner{}
		if build.User != nil {
			owner.Username = build.User.Username
			owner.AvatarURL = build.User.Profile.AvatarURL
		}
		build.User = nil
		feed = append(feed, models.PublicBuild{Build: build, Owner: owner})
	}
	return feed, nil
}

// Update merges the supplied fields into an owned build and appends any new
// image rows, without touching existing images.
func (r *BuildRepository) Update(id, ownerID string, update BuildUpdate, newImageURLs []string) (*models.Build, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var build models.Build
		if err := tx.First(&build, "id = ? AND user_id = ?", id, ownerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if changes := update.Changes(); len(changes) > 0 {
			if err := tx.Model(&build).Updates(changes).Error; err != nil {
				return err
			}
		}

		for _, url := range newImageURLs {
			image := models.Image{
				ID:      uuid.New().String(),
				BuildID: id,
				URL:     url,
			}
			if err := tx.Create(&image).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update build: %w", err)
	}

	return r.FindByID(id, ownerID)
}

// DeleteBuild removes an owned build and all its image rows in one
// transaction and returns the pre-deletion build so the caller can clean up
// the backing blobs after commit.
func (r *BuildRepository) DeleteBuild(id, ownerID string) (*models.Build, error) {
	var build models.Build
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Images", imagesByCreation).
			First(&build, "id = ? AND user_id = ?", id, ownerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := tx.Delete(&models.Image{}, "build_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Build{}, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete build: %w", err)
	}

	return &build, nil
}

// DeleteImage removes one image row from an owned build and returns the
// updated build plus the removed image's blob reference. The build row is
// locked for the duration of the transaction so concurrent deletes cannot
// both pass the sibling count and strand the build without images.
func (r *BuildRepository) DeleteImage(buildID, ownerID, imageID string) (*models.Build, string, error) {
	var removedURL string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var build models.Build
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&build, "id = ? AND user_id = ?", buildID, ownerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var image models.Image
		if err := tx.First(&image, "id = ? AND build_id = ?", imageID, buildID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.Image{}).Where("build_id = ?", buildID).Count(&count).Error; err != nil {
			return err
		}
		if count <= 1 {
			return ErrLastImage
		}

		if err := tx.Delete(&models.Image{}, "id = ?", imageID).Error; err != nil {
			return err
		}
		removedURL = image.URL
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrLastImage) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("failed to delete image: %w", err)
	}

	build, err := r.FindByID(buildID, ownerID)
	if err != nil {
		return nil, "", err
	}
	return build, removedURL, nil
}

// CountImages returns the image count of an owned build.
func (r *BuildRepository) CountImages(buildID, ownerID string) (int, error) {
	var build models.Build
	if err := r.db.Select("id").First(&build, "id = ? AND user_id = ?", buildID, ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to fetch build: %w", err)
	}

	var count int64
	if err := r.db.Model(&models.Image{}).Where("build_id = ?", buildID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}
	return int(count), nil
}

// ReferencedImageURLs lists every blob reference held by an image row, for
// the reconciliation sweep.
func (r *BuildRepository) ReferencedImageURLs() ([]string, error) {
	var urls []string
	if err := r.db.Model(&models.Image{}).Pluck("url", &urls).Error; err != nil {
		return nil, fmt.Errorf("failed to list image urls: %w", err)
	}
	return urls, nil
}

func imagesByCreation(db *gorm.DB) *gorm.DB {
	return db.Order("images.created_at ASC")
}
