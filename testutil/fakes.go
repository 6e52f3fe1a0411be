// Package testutil provides in-memory stand-ins for the repository and blob
// store so lifecycle and handler tests run without MySQL or real uploads.
package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"modsquad-api/models"
	"modsquad-api/repositories"
	"modsquad-api/storage"
)

// BuildRepo is an in-memory BuildStore with the same semantics as
// repositories.BuildRepository: ownership scoping maps to ErrNotFound, the
// last image cannot be deleted, partial updates only touch present fields.
type BuildRepo struct {
	mu     sync.Mutex
	builds map[string]*models.Build
	order  []string
	owners map[string]models.BuildOwner

	// CreateErr / UpdateErr force the next matching call to fail, for
	// exercising compensation paths.
	CreateErr error
	UpdateErr error
}

func NewBuildRepo() *BuildRepo {
	return &BuildRepo{
		builds: make(map[string]*models.Build),
		owners: make(map[string]models.BuildOwner),
	}
}

// SetOwner registers the display fields joined into the public feed.
func (r *BuildRepo) SetOwner(ownerID string, owner models.BuildOwner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[ownerID] = owner
}

func (r *BuildRepo) Create(ownerID string, fields repositories.BuildFields, imageURLs []string) (*models.Build, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CreateErr != nil {
		err := r.CreateErr
		r.CreateErr = nil
		return nil, err
	}
	if len(imageURLs) == 0 {
		return nil, repositories.ErrNoImages
	}

	now := time.Now()
	build := &models.Build{
		ID:          uuid.New().String(),
		UserID:      ownerID,
		Title:       fields.Title,
		Description: fields.Description,
		CarMake:     fields.CarMake,
		CarModel:    fields.CarModel,
		CarYear:     fields.CarYear,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, url := range imageURLs {
		build.Images = append(build.Images, models.Image{
			ID:        uuid.New().String(),
			BuildID:   build.ID,
			URL:       url,
			CreatedAt: now,
		})
	}

	r.builds[build.ID] = build
	r.order = append(r.order, build.ID)
	return clone(build), nil
}

func (r *BuildRepo) FindByID(id, ownerID string) (*models.Build, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	build, err := r.find(id, ownerID)
	if err != nil {
		return nil, err
	}
	return clone(build), nil
}

func (r *BuildRepo) ListByOwner(ownerID string) ([]models.Build, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var builds []models.Build
	for i := len(r.order) - 1; i >= 0; i-- {
		build := r.builds[r.order[i]]
		if build != nil && build.UserID == ownerID {
			builds = append(builds, *clone(build))
		}
	}
	return builds, nil
}

func (r *BuildRepo) ListPublic() ([]models.PublicBuild, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var feed []models.PublicBuild
	for i := len(r.order) - 1; i >= 0; i-- {
		build := r.builds[r.order[i]]
		if build == nil {
			continue
		}
		feed = append(feed, models.PublicBuild{
			Build: *clone(build),
			Owner: r.owners[build.UserID],
		})
	}
	return feed, nil
}

func (r *BuildRepo) Update(id, ownerID string, update repositories.BuildUpdate, newImageURLs []string) (*models.Build, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.UpdateErr != nil {
		err := r.UpdateErr
		r.UpdateErr = nil
		return nil, err
	}

	build, err := r.find(id, ownerID)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		build.Title = *update.Title
	}
	if update.Description != nil {
		build.Description = *update.Description
	}
	if update.CarMake != nil {
		build.CarMake = *update.CarMake
	}
	if update.CarModel != nil {
		build.CarModel = *update.CarModel
	}
	if update.CarYear != nil {
		build.CarYear = *update.CarYear
	}
	build.UpdatedAt = time.Now()

	for _, url := range newImageURLs {
		build.Images = append(build.Images, models.Image{
			ID:        uuid.New().String(),
			BuildID:   build.ID,
			URL:       url,
			CreatedAt: time.Now(),
		})
	}

	return clone(build), nil
}

func (r *BuildRepo) DeleteBuild(id, ownerID string) (*models.Build, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	build, err := r.find(id, ownerID)
	if err != nil {
		return nil, err
	}

	delete(r.builds, id)
	return build, nil
}

func (r *BuildRepo) DeleteImage(buildID, ownerID, imageID string) (*models.Build, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	build, err := r.find(buildID, ownerID)
	if err != nil {
		return nil, "", err
	}

	idx := -1
	for i, image := range build.Images {
		if image.ID == imageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, "", repositories.ErrNotFound
	}
	if len(build.Images) <= 1 {
		return nil, "", repositories.ErrLastImage
	}

	removedURL := build.Images[idx].URL
	build.Images = append(build.Images[:idx], build.Images[idx+1:]...)
	return clone(build), removedURL, nil
}

func (r *BuildRepo) CountImages(buildID, ownerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	build, err := r.find(buildID, ownerID)
	if err != nil {
		return 0, err
	}
	return len(build.Images), nil
}

func (r *BuildRepo) ReferencedImageURLs() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var urls []string
	for _, build := range r.builds {
		for _, image := range build.Images {
			urls = append(urls, image.URL)
		}
	}
	return urls, nil
}

func (r *BuildRepo) find(id, ownerID string) (*models.Build, error) {
	build, ok := r.builds[id]
	if !ok || (ownerID != "" && build.UserID != ownerID) {
		return nil, repositories.ErrNotFound
	}
	return build, nil
}

func clone(build *models.Build) *models.Build {
	copied := *build
	copied.Images = append([]models.Image(nil), build.Images...)
	return &copied
}

// BlobStore is an in-memory image store that records which references are
// live, so tests can assert compensation and cleanup behavior.
type BlobStore struct {
	mu      sync.Mutex
	live    map[string]bool
	counter int

	// SaveErrAt fails the Nth Save call (1-based) with SaveErr.
	SaveErrAt int
	SaveErr   error
	// RemoveErr fails every Remove call without forgetting the blob.
	RemoveErr error
}

func NewBlobStore() *BlobStore {
	return &BlobStore{live: make(map[string]bool)}
}

func (s *BlobStore) Save(up storage.Upload, limit int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	if s.SaveErrAt != 0 && s.counter == s.SaveErrAt {
		return "", s.SaveErr
	}
	if up.Size > limit {
		return "", storage.ErrPayloadTooLarge
	}

	ref := fmt.Sprintf("/uploads/blob-%d.jpg", s.counter)
	s.live[ref] = true
	return ref, nil
}

func (s *BlobStore) Remove(ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.RemoveErr != nil {
		return s.RemoveErr
	}
	delete(s.live, ref)
	return nil
}

// Live reports whether a reference still has backing bytes.
func (s *BlobStore) Live(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live[ref]
}

// LiveCount returns how many blobs are stored.
func (s *BlobStore) LiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}
