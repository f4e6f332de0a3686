package meta

// ResourceType resource type
type ResourceType byte

var (
	// InfiniteResource resource without limits
	InfiniteResource = ResourceType(0)
	// QuotedResource resource limited by the number of concurrent read locks
	QuotedResource = ResourceType(1)
	// CustomResource resource with the discrete pool of values
	CustomResource = ResourceType(2)
)

// QuotaInfinite quota value of an infinite quoted resource
const QuotaInfinite = -1

// Name returns name of the resource type
func (t ResourceType) Name() string {
	switch t {
	case InfiniteResource:
		return "infinite"
	case QuotedResource:
		return "quoted"
	case CustomResource:
		return "custom"
	}

	return "unknown"
}

// ParseResourceType returns the resource type by name
func ParseResourceType(name string) (ResourceType, bool) {
	switch name {
	case "infinite":
		return InfiniteResource, true
	case "quoted":
		return QuotedResource, true
	case "custom":
		return CustomResource, true
	}

	return 0, false
}

// Resource shared resource definition. Quota is used by quoted resources only,
// Values by custom resources only.
type Resource struct {
	ID        string       `json:"id" yaml:"id"`
	Name      string       `json:"name" yaml:"name"`
	ProjectID string       `json:"projectId" yaml:"-"`
	Type      ResourceType `json:"type" yaml:"-"`
	Enabled   bool         `json:"enabled" yaml:"enabled"`
	Quota     int          `json:"quota,omitempty" yaml:"quota"`
	Values    []string     `json:"values,omitempty" yaml:"values"`
}

// NewInfiniteResource returns an infinite resource
func NewInfiniteResource(name string) *Resource {
	return &Resource{
		Name:    name,
		Type:    InfiniteResource,
		Quota:   QuotaInfinite,
		Enabled: true,
	}
}

// NewQuotedResource returns a quoted resource, negative quota means infinite
func NewQuotedResource(name string, quota int) *Resource {
	if quota < 0 {
		quota = QuotaInfinite
	}

	return &Resource{
		Name:    name,
		Type:    QuotedResource,
		Quota:   quota,
		Enabled: true,
	}
}

// NewCustomResource returns a custom resource with the values
func NewCustomResource(name string, values []string) *Resource {
	return &Resource{
		Name:    name,
		Type:    CustomResource,
		Values:  append([]string(nil), values...),
		Enabled: true,
	}
}

// IsInfinite returns true if the resource does not limit read locks
func (r *Resource) IsInfinite() bool {
	switch r.Type {
	case InfiniteResource:
		return true
	case QuotedResource:
		return r.Quota < 0
	case CustomResource:
		return false
	}

	return true
}

// InState returns a copy of the resource with the enabled flag
func (r *Resource) InState(enabled bool) *Resource {
	value := r.Clone()
	value.Enabled = enabled
	return value
}

// Clone returns a copy of the resource
func (r *Resource) Clone() *Resource {
	value := *r
	value.Values = append([]string(nil), r.Values...)
	return &value
}
