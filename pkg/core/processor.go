package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fagongzi/log"
	"github.com/infinivision/buildlocks/pkg/feature"
	"github.com/infinivision/buildlocks/pkg/meta"
	"github.com/infinivision/buildlocks/pkg/metrics"
	"github.com/infinivision/buildlocks/pkg/resource"
	"github.com/infinivision/buildlocks/pkg/storage"
)

const (
	// ReservedAttributePrefix prefix of the build attribute with the value
	// of the custom resource reserved for the queued build
	ReservedAttributePrefix = "sharedResources.reserved."
	// ValuesSep separator of the free values exposed to the write lock
	ValuesSep = ";"
)

// ReservedAttribute returns the build attribute of the value reserved on the resource
func ReservedAttribute(resourceID string) string {
	return fmt.Sprintf("%s%s", ReservedAttributePrefix, resourceID)
}

// BuildServer builds known by the server
type BuildServer interface {
	// RunningBuilds returns running builds
	RunningBuilds() []*meta.Build
	// QueuedBuilds returns queued builds in the queue order
	QueuedBuilds() []*meta.Build
	// PartOfChain returns true if the build belongs to a build chain
	PartOfChain(id uint64) bool
	// DependentCompositeBuilds returns composite builds of the chain depending on the build,
	// from the top of the chain to the bottom
	DependentCompositeBuilds(id uint64) []*meta.Build
}

// Processor resolves locks of the starting build and of its composite chain, stores
// the taken locks and provides the values of the custom resources as build parameters
type Processor struct {
	sync.Mutex

	extractor         feature.Extractor
	storage           storage.LocksStorage
	catalog           resource.Catalog
	builds            BuildServer
	resourcesInChains bool
}

// NewProcessor returns a processor
func NewProcessor(extractor feature.Extractor, storage storage.LocksStorage, catalog resource.Catalog, builds BuildServer, resourcesInChains bool) *Processor {
	return &Processor{
		extractor:         extractor,
		storage:           storage,
		catalog:           catalog,
		builds:            builds,
		resourcesInChains: resourcesInChains,
	}
}

// resolution state shared by the builds resolved for one starting build
type resolution struct {
	startingID uint64
	composites map[uint64]struct{}
	resources  map[string]map[string]*meta.Resource
	running    []*meta.Build
	loaded     bool
}

// UpdateParameters resolves the starting build. Composite builds of its chain without
// stored locks are resolved first, from the top of the chain.
func (p *Processor) UpdateParameters(ctx *StartContext) {
	start := time.Now()
	defer func() {
		metrics.ResolveDurationHistogram.Observe(time.Now().Sub(start).Seconds())
	}()

	// several builds of the chain may take locks on the same resource
	p.Lock()
	defer p.Unlock()

	r := &resolution{
		startingID: ctx.Build.ID,
		composites: make(map[uint64]struct{}),
		resources:  make(map[string]map[string]*meta.Resource),
	}

	if p.resourcesInChains && p.builds.PartOfChain(ctx.Build.ID) {
		chain := p.builds.DependentCompositeBuilds(ctx.Build.ID)
		for _, b := range chain {
			r.composites[b.ID] = struct{}{}
		}

		for _, b := range chain {
			if !p.storage.LocksStored(b.ID) {
				p.processBuild(ctx, b, r)
			}
		}
	}

	p.processBuild(ctx, ctx.Build, r)
}

func (p *Processor) processBuild(ctx *StartContext, b *meta.Build, r *resolution) {
	if b.BuildTypeID == "" || b.ProjectID == "" {
		return
	}

	locks := p.extractor.FromFeaturesAsMap(b.Features)
	taken := make(map[meta.Lock]string, len(locks))
	for _, lock := range locks {
		taken[lock] = ""
	}

	resources := r.projectResources(p.catalog, b.ProjectID)
	// no values are assigned to composite builds, their locks are stored as they are
	if !b.Composite {
		custom := matchCustomResources(resources, locks)
		if len(custom) > 0 {
			used := p.usedValues(locks, r)

			names := make([]string, 0, len(custom))
			for name := range custom {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				res := custom[name]
				if !res.Enabled {
					continue
				}

				free := subtract(res.Values, used[name])
				if len(free) == 0 {
					metrics.UnresolvedValueCounter.WithLabelValues(name).Inc()
					log.Warnf("[build-%d]: unable to assign value to lock %s, all values of the resource %s are used",
						b.ID,
						name,
						res.ID)
					continue
				}

				lock := locks[name]
				var value string
				switch lock.Type {
				case meta.ReadLock:
					value = lock.Value
					if value == "" {
						value = reservedValue(b, res, free)
					}
					taken[lock] = value
				case meta.WriteLock:
					value = strings.Join(free, ValuesSep)
				}

				ctx.AddSharedParameter(p.extractor.AsBuildParameter(lock), value)
				log.Debugf("[build-%d]: lock %s resolved to %q",
					b.ID,
					lock.String(),
					value)
			}
		}
	}

	p.storage.Store(b.ID, taken)
}

// usedValues returns values of the custom locks taken by the running builds,
// composite builds of the chain are not checked
func (p *Processor) usedValues(locks map[string]meta.Lock, r *resolution) map[string][]string {
	if !r.loaded {
		for _, b := range p.builds.RunningBuilds() {
			if _, ok := r.composites[b.ID]; ok || b.ID == r.startingID {
				continue
			}
			r.running = append(r.running, b)
		}
		r.loaded = true
	}

	used := make(map[string][]string, len(locks))
	for _, b := range r.running {
		stored := p.storage.Load(b.ID)
		for name := range locks {
			if lock, ok := stored[name]; ok && lock.Value != "" {
				used[name] = append(used[name], lock.Value)
			}
		}
	}
	return used
}

func (r *resolution) projectResources(catalog resource.Catalog, projectID string) map[string]*meta.Resource {
	if value, ok := r.resources[projectID]; ok {
		return value
	}

	value := catalog.ResourcesMap(projectID)
	r.resources[projectID] = value
	return value
}

func matchCustomResources(resources map[string]*meta.Resource, locks map[string]meta.Lock) map[string]*meta.Resource {
	result := make(map[string]*meta.Resource)
	for name, res := range resource.CustomResources(resources) {
		if _, ok := locks[name]; ok {
			result[name] = res
		}
	}
	return result
}

func reservedValue(b *meta.Build, res *meta.Resource, free []string) string {
	if value, ok := b.Attribute(ReservedAttribute(res.ID)); ok && value != "" {
		return value
	}
	return free[0]
}

// subtract removes one occurrence of each used value from the values
func subtract(values []string, used []string) []string {
	result := append([]string(nil), values...)
	for _, value := range used {
		for i, v := range result {
			if v == value {
				result = append(result[:i], result[i+1:]...)
				break
			}
		}
	}
	return result
}
