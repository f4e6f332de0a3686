package lock

import (
	"github.com/infinivision/buildlocks/pkg/feature"
	"github.com/infinivision/buildlocks/pkg/meta"
	"github.com/infinivision/buildlocks/pkg/metrics"
	"github.com/infinivision/buildlocks/pkg/resource"
	"github.com/infinivision/buildlocks/pkg/storage"
)

// TakenLocks collects the locks held by the builds and decides which
// wanted locks can not be granted
type TakenLocks interface {
	// CollectTakenLocks returns holders of the locks by the lock name, only builds of the project
	// are visited. Running builds use the stored record if there is one, queued builds and
	// running builds without the record use the locks from the build parameters.
	CollectTakenLocks(projectID string, running, queued []*meta.Build) map[string]*meta.TakenLock
	// GetUnavailableLocks returns wanted locks that can not be granted with the taken locks
	// against the resources visible to the project
	GetUnavailableLocks(want []meta.Lock, taken map[string]*meta.TakenLock, projectID string) []meta.Lock
}

type takenLocks struct {
	extractor feature.Extractor
	storage   storage.LocksStorage
	catalog   resource.Catalog
}

// NewTakenLocks returns taken locks
func NewTakenLocks(extractor feature.Extractor, storage storage.LocksStorage, catalog resource.Catalog) TakenLocks {
	return &takenLocks{
		extractor: extractor,
		storage:   storage,
		catalog:   catalog,
	}
}

func (tl *takenLocks) CollectTakenLocks(projectID string, running, queued []*meta.Build) map[string]*meta.TakenLock {
	result := make(map[string]*meta.TakenLock)
	for _, b := range running {
		if b.ProjectID != projectID {
			continue
		}

		if tl.storage.LocksStored(b.ID) {
			metrics.CollectCounter.WithLabelValues(metrics.SourceStored).Inc()
			for _, lock := range tl.storage.Load(b.ID) {
				addTakenLock(result, b.ID, lock)
			}
			continue
		}

		metrics.CollectCounter.WithLabelValues(metrics.SourceParameters).Inc()
		addTakenLocks(result, b.ID, tl.extractor.FromBuildParameters(b.Parameters))
	}

	for _, b := range queued {
		if b.ProjectID != projectID {
			continue
		}

		metrics.CollectCounter.WithLabelValues(metrics.SourceParameters).Inc()
		addTakenLocks(result, b.ID, tl.extractor.FromBuildParameters(b.Parameters))
	}

	return result
}

func (tl *takenLocks) GetUnavailableLocks(want []meta.Lock, taken map[string]*meta.TakenLock, projectID string) []meta.Lock {
	return UnavailableLocks(want, taken, tl.catalog.ResourcesMap(projectID))
}

func addTakenLocks(taken map[string]*meta.TakenLock, buildID uint64, locks []meta.Lock) {
	for _, lock := range locks {
		addTakenLock(taken, buildID, lock)
	}
}

func addTakenLock(taken map[string]*meta.TakenLock, buildID uint64, lock meta.Lock) {
	value, ok := taken[lock.Name]
	if !ok {
		value = meta.NewTakenLock()
		taken[lock.Name] = value
	}
	value.AddLock(buildID, lock)
}
