package resource

import (
	"io/ioutil"

	"github.com/infinivision/buildlocks/pkg/id"
	"github.com/infinivision/buildlocks/pkg/meta"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

type catalogFile struct {
	Projects []projectDef `yaml:"projects"`
}

type projectDef struct {
	ID        string        `yaml:"id"`
	Parent    string        `yaml:"parent"`
	Resources []resourceDef `yaml:"resources"`
}

type resourceDef struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Quota   *int     `yaml:"quota"`
	Values  []string `yaml:"values"`
	Enabled *bool    `yaml:"enabled"`
}

func (d resourceDef) resource() (*meta.Resource, error) {
	resourceType, ok := meta.ParseResourceType(d.Type)
	if !ok {
		return nil, errors.Wrapf(meta.ErrInvalidResource, "type %q of %s", d.Type, d.Name)
	}

	var r *meta.Resource
	switch resourceType {
	case meta.InfiniteResource:
		r = meta.NewInfiniteResource(d.Name)
	case meta.QuotedResource:
		quota := meta.QuotaInfinite
		if d.Quota != nil {
			quota = *d.Quota
		}
		r = meta.NewQuotedResource(d.Name, quota)
	case meta.CustomResource:
		r = meta.NewCustomResource(d.Name, d.Values)
	}

	r.ID = d.ID
	if d.Enabled != nil {
		r.Enabled = *d.Enabled
	}
	return r, nil
}

// LoadFile loads the project tree from the yaml file
func LoadFile(file string, gen id.Generator) (*Projects, error) {
	data, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "read catalog %s", file)
	}

	return Load(data, gen)
}

// Load loads the project tree from yaml. Parent projects must be defined
// before their children.
func Load(data []byte, gen id.Generator) (*Projects, error) {
	value := catalogFile{}
	if err := yaml.Unmarshal(data, &value); err != nil {
		return nil, errors.Wrap(err, "parse catalog")
	}

	ps := NewProjects(gen)
	for _, p := range value.Projects {
		if err := ps.AddProject(p.ID, p.Parent); err != nil {
			return nil, err
		}

		for _, d := range p.Resources {
			r, err := d.resource()
			if err != nil {
				return nil, err
			}

			if _, err := ps.AddResource(p.ID, r); err != nil {
				return nil, err
			}
		}
	}
	return ps, nil
}
