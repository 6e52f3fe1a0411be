package services

import (
	"errors"

	"go.uber.org/zap"
	"modsquad-api/models"
	"modsquad-api/repositories"
	"modsquad-api/storage"
)

// ErrTooManyImages rejects uploads that would push a build past the
// configured image ceiling.
var ErrTooManyImages = errors.New("too many images for this build")

// BuildStore is the persistence surface the lifecycle manager needs.
// *repositories.BuildRepository implements it; tests use an in-memory fake.
type BuildStore interface {
	Create(ownerID string, fields repositories.BuildFields, imageURLs []string) (*models.Build, error)
	FindByID(id, ownerID string) (*models.Build, error)
	ListByOwner(ownerID string) ([]models.Build, error)
	ListPublic() ([]models.PublicBuild, error)
	Update(id, ownerID string, update repositories.BuildUpdate, newImageURLs []string) (*models.Build, error)
	DeleteBuild(id, ownerID string) (*models.Build, error)
	DeleteImage(buildID, ownerID, imageID string) (*models.Build, string, error)
	CountImages(buildID, ownerID string) (int, error)
}

// ImageStore is the blob storage surface the lifecycle manager needs.
type ImageStore interface {
	Save(up storage.Upload, limit int64) (string, error)
	Remove(ref string) error
}

// BuildService orchestrates the repository and the blob store so the two
// never diverge: the database is the source of truth, a blob is only "live"
// once its row is committed, and any blob stored for a request that later
// fails is compensated with a best-effort delete.
type BuildService struct {
	repo      BuildStore
	images    ImageStore
	logger    *zap.Logger
	maxImages int
	maxBytes  int64
}

func NewBuildService(repo BuildStore, images ImageStore, logger *zap.Logger, maxImages int, maxBytes int64) *BuildService {
	return &BuildService{
		repo:      repo,
		images:    images,
		logger:    logger,
		maxImages: maxImages,
		maxBytes:  maxBytes,
	}
}

// Create stores the uploaded images and inserts the build with their
// references. If the insert fails, the just-stored blobs are deleted before
// the error is surfaced.
func (s *BuildService) Create(ownerID string, fields repositories.BuildFields, uploads []storage.Upload) (*models.Build, error) {
	if len(uploads) == 0 {
		return nil, repositories.ErrNoImages
	}
	if len(uploads) > s.maxImages {
		return nil, ErrTooManyImages
	}

	refs, err := s.storeAll(uploads)
	if err != nil {
		return nil, err
	}

	build, err := s.repo.Create(ownerID, fields, refs)
	if err != nil {
		s.compensate(refs)
		return nil, err
	}
	return build, nil
}

// Update merges the supplied fields and appends any new images. The image
// ceiling is checked before any blob is written so a rejected request costs
// no storage I/O.
func (s *BuildService) Update(id, ownerID string, update repositories.BuildUpdate, uploads []storage.Upload) (*models.Build, error) {
	if len(uploads) > 0 {
		count, err := s.repo.CountImages(id, ownerID)
		if err != nil {
			return nil, err
		}
		if count+len(uploads) > s.maxImages {
			return nil, ErrTooManyImages
		}
	}

	refs, err := s.storeAll(uploads)
	if err != nil {
		return nil, err
	}

	build, err := s.repo.Update(id, ownerID, update, refs)
	if err != nil {
		// Pre-existing images were never touched, only the new blobs
		// need compensating.
		s.compensate(refs)
		return nil, err
	}
	return build, nil
}

// Delete removes the build from the database first, then cleans up its blobs.
// Blob cleanup failures are logged and swallowed: once the transaction has
// committed nothing references those files, so leftovers are reclaimable
// garbage for the reconciliation sweep.
func (s *BuildService) Delete(id, ownerID string) error {
	build, err := s.repo.DeleteBuild(id, ownerID)
	if err != nil {
		return err
	}

	for _, image := range build.Images {
		if err := s.images.Remove(image.URL); err != nil {
			s.logger.Warn("failed to delete image blob",
				zap.String("build_id", id),
				zap.String("url", image.URL),
				zap.Error(err))
		}
	}
	return nil
}

// RemoveImage deletes one image from a build. The repository enforces the
// at-least-one-image rule atomically; the blob is removed after the row is
// gone, best-effort.
func (s *BuildService) RemoveImage(buildID, ownerID, imageID string) (*models.Build, error) {
	build, removedURL, err := s.repo.DeleteImage(buildID, ownerID, imageID)
	if err != nil {
		return nil, err
	}

	if err := s.images.Remove(removedURL); err != nil {
		s.logger.Warn("failed to delete image blob",
			zap.String("build_id", buildID),
			zap.String("url", removedURL),
			zap.Error(err))
	}
	return build, nil
}

// Get returns one of the owner's builds.
func (s *BuildService) Get(id, ownerID string) (*models.Build, error) {
	return s.repo.FindByID(id, ownerID)
}

// ListMine returns the owner's builds, most recent first.
func (s *BuildService) ListMine(ownerID string) ([]models.Build, error) {
	return s.repo.ListByOwner(ownerID)
}

// ListPublic returns the public feed.
func (s *BuildService) ListPublic() ([]models.PublicBuild, error) {
	return s.repo.ListPublic()
}

// storeAll persists every upload, compensating the ones already stored when
// a later one fails.
func (s *BuildService) storeAll(uploads []storage.Upload) ([]string, error) {
	refs := make([]string, 0, len(uploads))
	for _, up := range uploads {
		ref, err := s.images.Save(up, s.maxBytes)
		if err != nil {
			s.compensate(refs)
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// compensate best-effort deletes blobs stored for a request that failed.
// Failures are logged, never re-thrown, so they cannot mask the original
// error; anything missed is picked up by the reconciliation sweep.
func (s *BuildService) compensate(refs []string) {
	for _, ref := range refs {
		if err := s.images.Remove(ref); err != nil {
			s.logger.Warn("failed to clean up stored blob", zap.String("url", ref), zap.Error(err))
		}
	}
}
