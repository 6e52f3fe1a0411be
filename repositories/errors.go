package repositories

import "errors"

var (
	// ErrNotFound covers both a missing build/image and a build owned by
	// someone else, so ownership mismatches never leak existence.
	ErrNotFound = errors.New("build not found")

	// ErrLastImage rejects deleting the sole remaining image of a build.
	ErrLastImage = errors.New("cannot delete the last image, a build must have at least one image")

	// ErrNoImages rejects creating a build without any images.
	ErrNoImages = errors.New("at least one image is required")
)
