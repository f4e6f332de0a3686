package resource

import (
	"sort"
	"sync"

	"github.com/fagongzi/log"
	"github.com/infinivision/buildlocks/pkg/id"
	"github.com/infinivision/buildlocks/pkg/meta"
	"github.com/pkg/errors"
)

type project struct {
	id        string
	parentID  string
	resources []*meta.Resource
}

func (p *project) ownByName(name string) *meta.Resource {
	for _, r := range p.resources {
		if r.Name == name {
			return r
		}
	}
	return nil
}

func (p *project) indexOf(resourceID string) int {
	for i, r := range p.resources {
		if r.ID == resourceID {
			return i
		}
	}
	return -1
}

// Projects in-memory project tree with resource definitions
type Projects struct {
	sync.RWMutex

	gen      id.Generator
	projects map[string]*project
}

// NewProjects returns an empty project tree
func NewProjects(gen id.Generator) *Projects {
	if gen == nil {
		gen = id.NewMemGenerator()
	}

	return &Projects{
		gen:      gen,
		projects: make(map[string]*project),
	}
}

// AddProject adds the project to the tree, parent must exist unless it is empty
func (ps *Projects) AddProject(projectID, parentID string) error {
	ps.Lock()
	defer ps.Unlock()

	if _, ok := ps.projects[projectID]; ok {
		return errors.Errorf("project %s already exists", projectID)
	}

	if parentID != "" {
		if _, ok := ps.projects[parentID]; !ok {
			return errors.Wrapf(meta.ErrProjectNotFound, "parent of %s", projectID)
		}
	}

	ps.projects[projectID] = &project{
		id:       projectID,
		parentID: parentID,
	}
	return nil
}

// ProjectPath returns project ids from the root to the project
func (ps *Projects) ProjectPath(projectID string) []string {
	ps.RLock()
	defer ps.RUnlock()

	return ps.path(projectID)
}

func (ps *Projects) path(projectID string) []string {
	var path []string
	seen := make(map[string]struct{})
	for current := projectID; current != ""; {
		p, ok := ps.projects[current]
		if !ok {
			break
		}

		if _, ok := seen[current]; ok {
			break
		}
		seen[current] = struct{}{}

		path = append([]string{current}, path...)
		current = p.parentID
	}
	return path
}

// AddResource adds the resource to the project own resources
func (ps *Projects) AddResource(projectID string, r *meta.Resource) (*meta.Resource, error) {
	if err := validate(r); err != nil {
		return nil, err
	}

	ps.Lock()
	defer ps.Unlock()

	p, err := ps.project(projectID)
	if err != nil {
		return nil, err
	}

	if p.ownByName(r.Name) != nil {
		return nil, errors.Wrapf(meta.ErrDuplicateResource, "resource %s in project %s", r.Name, projectID)
	}

	value := r.Clone()
	value.ProjectID = projectID
	if value.ID == "" {
		value.ID, err = id.ResourceID(ps.gen, projectID)
		if err != nil {
			return nil, err
		}
	}

	p.resources = append(p.resources, value)
	log.Infof("[project-%s]: resource %s added, type %s",
		projectID,
		value.Name,
		value.Type.Name())
	return value.Clone(), nil
}

// EditResource replaces the resource with given id
func (ps *Projects) EditResource(projectID, resourceID string, r *meta.Resource) error {
	if err := validate(r); err != nil {
		return err
	}

	ps.Lock()
	defer ps.Unlock()

	p, err := ps.project(projectID)
	if err != nil {
		return err
	}

	idx := p.indexOf(resourceID)
	if idx < 0 {
		return errors.Wrapf(meta.ErrResourceNotFound, "resource %s in project %s", resourceID, projectID)
	}

	if other := p.ownByName(r.Name); other != nil && other.ID != resourceID {
		return errors.Wrapf(meta.ErrDuplicateResource, "resource %s in project %s", r.Name, projectID)
	}

	value := r.Clone()
	value.ID = resourceID
	value.ProjectID = projectID
	p.resources[idx] = value
	return nil
}

// DeleteResource removes the resource from the project
func (ps *Projects) DeleteResource(projectID, resourceID string) error {
	ps.Lock()
	defer ps.Unlock()

	p, err := ps.project(projectID)
	if err != nil {
		return err
	}

	idx := p.indexOf(resourceID)
	if idx < 0 {
		return errors.Wrapf(meta.ErrResourceNotFound, "resource %s in project %s", resourceID, projectID)
	}

	p.resources = append(p.resources[:idx], p.resources[idx+1:]...)
	return nil
}

// SetEnabled enables or disables the project own resource
func (ps *Projects) SetEnabled(projectID, resourceID string, enabled bool) (*meta.Resource, error) {
	ps.Lock()
	defer ps.Unlock()

	p, ok := ps.projects[projectID]
	if !ok {
		log.Errorf("[project-%s]: project no longer exists", projectID)
		return nil, errors.Wrapf(meta.ErrProjectNotFound, "project %s", projectID)
	}

	idx := p.indexOf(resourceID)
	if idx < 0 {
		return nil, errors.Wrapf(meta.ErrResourceNotFound, "resource %s in project %s", resourceID, projectID)
	}

	value := p.resources[idx].InState(enabled)
	p.resources[idx] = value

	changed := "disabled"
	if enabled {
		changed = "enabled"
	}
	log.Infof("[project-%s]: resource %s was %s", projectID, value.Name, changed)
	return value.Clone(), nil
}

// ResourcesMap returns visible resources by name
func (ps *Projects) ResourcesMap(projectID string) map[string]*meta.Resource {
	ps.RLock()
	defer ps.RUnlock()

	result := make(map[string]*meta.Resource)
	path := ps.path(projectID)
	for i := len(path) - 1; i >= 0; i-- {
		for _, r := range ps.projects[path[i]].resources {
			if _, ok := result[r.Name]; !ok {
				result[r.Name] = r.Clone()
			}
		}
	}
	return result
}

// OwnResources returns resources of the project sorted by name
func (ps *Projects) OwnResources(projectID string) ([]*meta.Resource, error) {
	ps.RLock()
	defer ps.RUnlock()

	p, err := ps.project(projectID)
	if err != nil {
		return nil, err
	}

	result := make([]*meta.Resource, 0, len(p.resources))
	for _, r := range p.resources {
		result = append(result, r.Clone())
	}
	sortByName(result)
	return result, nil
}

// Resources returns resources visible to the project sorted by name
func (ps *Projects) Resources(projectID string) ([]*meta.Resource, error) {
	ps.RLock()
	_, err := ps.project(projectID)
	ps.RUnlock()
	if err != nil {
		return nil, err
	}

	values := ps.ResourcesMap(projectID)
	result := make([]*meta.Resource, 0, len(values))
	for _, r := range values {
		result = append(result, r)
	}
	sortByName(result)
	return result, nil
}

// Count returns the number of visible resources
func (ps *Projects) Count(projectID string) (int, error) {
	values, err := ps.Resources(projectID)
	if err != nil {
		return 0, err
	}

	return len(values), nil
}

// Overrides returns the resources of the ancestors on the project path that
// are shadowed by a descendant resource with the same name, keyed by the
// shadowed resource id.
func (ps *Projects) Overrides(projectID string) map[string]*meta.Resource {
	ps.RLock()
	defer ps.RUnlock()

	result := make(map[string]*meta.Resource)
	var seen []*meta.Resource
	for _, pid := range ps.path(projectID) {
		own := ps.projects[pid].resources
		for _, r := range own {
			for _, prev := range seen {
				if prev.Name == r.Name {
					result[prev.ID] = r.Clone()
				}
			}
		}
		seen = append(seen, own...)
	}
	return result
}

func (ps *Projects) project(projectID string) (*project, error) {
	p, ok := ps.projects[projectID]
	if !ok {
		return nil, errors.Wrapf(meta.ErrProjectNotFound, "project %s", projectID)
	}
	return p, nil
}

func validate(r *meta.Resource) error {
	if r == nil || r.Name == "" {
		return errors.Wrap(meta.ErrInvalidResource, "missing name")
	}

	switch r.Type {
	case meta.InfiniteResource:
		return nil
	case meta.QuotedResource:
		if r.Quota < meta.QuotaInfinite {
			return errors.Wrapf(meta.ErrInvalidResource, "quota %d of %s", r.Quota, r.Name)
		}
		return nil
	case meta.CustomResource:
		if len(r.Values) == 0 {
			return errors.Wrapf(meta.ErrInvalidResource, "no values of %s", r.Name)
		}
		return nil
	}

	return errors.Wrapf(meta.ErrInvalidResource, "type %d of %s", r.Type, r.Name)
}

func sortByName(values []*meta.Resource) {
	sort.Slice(values, func(i, j int) bool {
		return values[i].Name < values[j].Name
	})
}
