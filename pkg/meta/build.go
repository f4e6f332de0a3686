package meta

// Feature build feature of a build configuration
type Feature struct {
	Type       string            `json:"type"`
	Parameters map[string]string `json:"parameters"`
}

// BuildState build state in the server
type BuildState byte

var (
	// BuildQueued waiting in the queue
	BuildQueued = BuildState(0)
	// BuildRunning started
	BuildRunning = BuildState(1)
	// BuildFinished finished, terminal state
	BuildFinished = BuildState(2)
)

// Name returns name of the state
func (s BuildState) Name() string {
	switch s {
	case BuildQueued:
		return "queued"
	case BuildRunning:
		return "running"
	case BuildFinished:
		return "finished"
	}

	return "unknown"
}

// Build a build instance. Dependencies are the ids of the builds this
// build depends on; a composite build only coordinates its dependencies.
type Build struct {
	ID           uint64            `json:"id"`
	ProjectID    string            `json:"projectId"`
	BuildTypeID  string            `json:"buildTypeId"`
	Composite    bool              `json:"composite"`
	State        BuildState        `json:"state"`
	Features     []Feature         `json:"features,omitempty"`
	Parameters   map[string]string `json:"parameters,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	Dependencies []uint64          `json:"dependencies,omitempty"`
}

// Attribute returns the build attribute
func (b *Build) Attribute(key string) (string, bool) {
	if b.Attributes == nil {
		return "", false
	}

	value, ok := b.Attributes[key]
	return value, ok
}

// SetAttribute sets the build attribute
func (b *Build) SetAttribute(key, value string) {
	if b.Attributes == nil {
		b.Attributes = make(map[string]string)
	}
	b.Attributes[key] = value
}

// Clone returns a copy of the build
func (b *Build) Clone() *Build {
	value := *b
	value.Features = make([]Feature, 0, len(b.Features))
	for _, f := range b.Features {
		value.Features = append(value.Features, Feature{
			Type:       f.Type,
			Parameters: copyMap(f.Parameters),
		})
	}
	value.Parameters = copyMap(b.Parameters)
	value.Attributes = copyMap(b.Attributes)
	value.Dependencies = append([]uint64(nil), b.Dependencies...)
	return &value
}

func copyMap(src map[string]string) map[string]string {
	if src == nil {
		return nil
	}

	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// JSONResult http json result
type JSONResult struct {
	Code  int         `json:"code"`
	Error string      `json:"error,omitempty"`
	Value interface{} `json:"value,omitempty"`
}
