// Package ai defines the embedding service contract consumed by the sync
// pipeline, along with its configuration.
//
// The embedding model itself is an external collaborator: implementations
// live in subpackages (openai for OpenAI-compatible APIs, mock for tests)
// and are consumed exclusively through the Embedder interface.
package ai
