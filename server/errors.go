package server

import "errors"

var (
	// ErrOrchestratorRequired is returned when an orchestrator is not provided.
	ErrOrchestratorRequired = errors.New("orchestrator required")

	// ErrProductRepositoryRequired is returned when a product repository is not provided.
	ErrProductRepositoryRequired = errors.New("product repository required")

	// ErrHistoryRepositoryRequired is returned when a sync history repository is not provided.
	ErrHistoryRepositoryRequired = errors.New("sync history repository required")
)
