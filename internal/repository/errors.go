package repository

import "errors"

var (
	// ErrSessionNotFound indicates the capture session does not exist or has expired
	ErrSessionNotFound = errors.New("capture session not found")

	// ErrGarmentNotFound indicates the catalog has no garment with the given ID
	ErrGarmentNotFound = errors.New("garment not found")

	// ErrRepositoryUnavailable indicates the backing store cannot be reached
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
