// Package service implements the build ingestion pipeline, the asset
// proxy and the visibility rules gating both
package service

import "errors"

var (
	// ErrInvalidArchive means the payload couldn't be opened as a zip
	ErrInvalidArchive = errors.New("payload is not a valid zip archive")

	// ErrMissingEntryPoint means the archive has no index.html at its
	// root. Rejected before anything is written to storage
	ErrMissingEntryPoint = errors.New("archive has no root index.html")

	// ErrBuildTooLarge means the payload exceeds the configured ceiling
	ErrBuildTooLarge = errors.New("build archive exceeds the size limit")

	// ErrNoBuild means the game has no current build to serve
	ErrNoBuild = errors.New("game has no build")

	// ErrAssetNotFound means the requested file path doesn't exist in
	// the game's build
	ErrAssetNotFound = errors.New("build asset not found")

	// ErrNotAvailable is returned when the visibility gate denies a
	// read. It intentionally reads like "does not exist" so callers
	// can't probe for private games
	ErrNotAvailable = errors.New("game not available")
)
