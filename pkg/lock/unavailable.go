package lock

import (
	"github.com/infinivision/buildlocks/pkg/meta"
	"github.com/infinivision/buildlocks/pkg/metrics"
)

// UnavailableLocks returns the wanted locks that can not be granted, in the wanted order.
// A wanted lock is reported at most once; equal wanted locks are checked independently.
//
// A read lock is unavailable if there is a write holder, or if the read holders
// already use the whole quota of a finite quoted resource or all values of a custom
// resource. A write lock is unavailable if there is any holder.
func UnavailableLocks(want []meta.Lock, taken map[string]*meta.TakenLock, resources map[string]*meta.Resource) []meta.Lock {
	var result []meta.Lock
	for _, lock := range want {
		holders, ok := taken[lock.Name]
		if !ok {
			continue
		}

		if !available(lock, holders, resources[lock.Name]) {
			metrics.UnavailableCounter.WithLabelValues(lock.Type.Name()).Inc()
			result = append(result, lock)
		}
	}
	return result
}

func available(lock meta.Lock, holders *meta.TakenLock, r *meta.Resource) bool {
	switch lock.Type {
	case meta.ReadLock:
		if holders.HasWriteLocks() {
			return false
		}
		return r == nil || len(holders.ReadLocks) < readLimit(r)
	case meta.WriteLock:
		return !holders.HasReadLocks() && !holders.HasWriteLocks()
	}

	return true
}

const unlimited = int(^uint(0) >> 1)

// readLimit returns max number of read holders of the resource
func readLimit(r *meta.Resource) int {
	switch r.Type {
	case meta.QuotedResource:
		if r.IsInfinite() {
			return unlimited
		}
		return r.Quota
	case meta.CustomResource:
		return len(r.Values)
	case meta.InfiniteResource:
		return unlimited
	}

	return unlimited
}
