package artifact

// Storage artifact namespaces of the builds. Paths are relative to the
// build's own namespace and use '/' as separator.
type Storage interface {
	// Read returns the artifact content, meta.ErrArtifactNotFound if it does not exist
	Read(buildID uint64, path string) ([]byte, error)
	// Write creates or replaces the artifact
	Write(buildID uint64, path string, data []byte) error
	// Remove removes the artifact, missing artifact is not an error
	Remove(buildID uint64, path string) error
	// Close releases the storage
	Close() error
}
