package jobs

import (
	"time"

	"go.uber.org/zap"
	"modsquad-api/storage"
)

// BlobSource lists and removes stored blobs. *storage.DiskStore implements it.
type BlobSource interface {
	Blobs() ([]storage.Blob, error)
	Remove(ref string) error
}

// ReferenceSource lists every blob reference the database still holds.
// *repositories.BuildRepository implements it.
type ReferenceSource interface {
	ReferencedImageURLs() ([]string, error)
}

// BlobReconcileJob periodically garbage-collects blobs no image row
// references, the backstop for compensation deletes that failed. Blobs
// younger than minAge are left alone so uploads racing the sweep are never
// collected before their rows commit.
type BlobReconcileJob struct {
	store  BlobSource
	repo   ReferenceSource
	minAge time.Duration
	ticker *time.Ticker
	done   chan bool
	logger *zap.Logger
}

func NewBlobReconcileJob(store BlobSource, repo ReferenceSource, interval, minAge time.Duration, logger *zap.Logger) *BlobReconcileJob {
	return &BlobReconcileJob{
		store:  store,
		repo:   repo,
		minAge: minAge,
		ticker: time.NewTicker(interval),
		done:   make(chan bool),
		logger: logger,
	}
}

// Start begins the reconciliation job.
func (j *BlobReconcileJob) Start() {
	j.logger.Info("blob reconcile job started")

	go func() {
		// Run immediately on start
		j.Sweep()

		// Then run on schedule
		for {
			select {
			case <-j.ticker.C:
				j.Sweep()
			case <-j.done:
				j.logger.Info("blob reconcile job stopped")
				return
			}
		}
	}()
}

// Stop stops the reconciliation job.
func (j *BlobReconcileJob) Stop() {
	j.ticker.Stop()
	j.done <- true
}

// Sweep deletes every unreferenced blob older than the grace period.
func (j *BlobReconcileJob) Sweep() {
	urls, err := j.repo.ReferencedImageURLs()
	if err != nil {
		j.logger.Error("failed to list referenced image urls", zap.Error(err))
		return
	}
	referenced := make(map[string]bool, len(urls))
	for _, url := range urls {
		referenced[url] = true
	}

	blobs, err := j.store.Blobs()
	if err != nil {
		j.logger.Error("failed to list stored blobs", zap.Error(err))
		return
	}

	cutoff := time.Now().Add(-j.minAge)
	removed := 0
	for _, blob := range blobs {
		if referenced[blob.Ref] || blob.ModTime.After(cutoff) {
			continue
		}
		if err := j.store.Remove(blob.Ref); err != nil {
			j.logger.Warn("failed to remove orphaned blob", zap.String("url", blob.Ref), zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		j.logger.Info("reclaimed orphaned blobs", zap.Int("count", removed))
	}
}
