package ai

import "fmt"

// Backend names an embedding implementation.
type Backend string

const (
	// BackendLocal runs the embedding model in-process.
	BackendLocal Backend = "local"
	// BackendOpenAI calls an OpenAI-compatible embedding API.
	BackendOpenAI Backend = "openai"
)

// Backends lists the supported backends in display order.
var Backends = []Backend{BackendLocal, BackendOpenAI}

// ParseBackend converts a user-supplied name into a Backend.
func ParseBackend(name string) (Backend, error) {
	for _, b := range Backends {
		if string(b) == name {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}

func (b Backend) String() string {
	return string(b)
}
