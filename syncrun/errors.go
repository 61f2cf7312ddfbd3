package syncrun

import "errors"

var (
	// ErrProductRepositoryRequired is returned when a product repository is not provided.
	ErrProductRepositoryRequired = errors.New("product repository required")

	// ErrHistoryRepositoryRequired is returned when a sync history repository is not provided.
	ErrHistoryRepositoryRequired = errors.New("sync history repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrAdapterFactoryRequired is returned when a source adapter factory is not provided.
	ErrAdapterFactoryRequired = errors.New("source adapter factory required")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrRunTimeout is recorded on runs aborted by the overall run timeout.
	ErrRunTimeout = errors.New("sync run timed out")
)
