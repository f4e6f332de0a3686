package resource

import (
	"github.com/infinivision/buildlocks/pkg/meta"
)

// Catalog effective resource definitions visible to the projects
type Catalog interface {
	// ResourcesMap returns the resources visible to the project by name, with
	// inheritance resolved: a descendant project shadows the ancestor's resource
	// with the same name. Unknown projects have no resources.
	ResourcesMap(projectID string) map[string]*meta.Resource
	// OwnResources returns resources defined in the project itself
	OwnResources(projectID string) ([]*meta.Resource, error)
	// Resources returns resources visible to the project, with inheritance
	Resources(projectID string) ([]*meta.Resource, error)
	// Count returns the number of resources visible to the project
	Count(projectID string) (int, error)
}

// CustomResources returns enabled and disabled custom resources from the map
func CustomResources(resources map[string]*meta.Resource) map[string]*meta.Resource {
	result := make(map[string]*meta.Resource)
	for name, r := range resources {
		if r.Type == meta.CustomResource {
			result[name] = r
		}
	}
	return result
}
