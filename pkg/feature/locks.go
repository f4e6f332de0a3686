package feature

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fagongzi/log"
	"github.com/infinivision/buildlocks/pkg/meta"
)

const (
	// Type build feature type that declares locks
	Type = "JetBrains.SharedResources"
	// LocksParam feature parameter with lock declarations, one per line
	LocksParam = "locks-param"
	// ParamPrefix prefix of the build parameters that expose locks
	ParamPrefix = "teamcity.locks."
)

// Extractor extracts lock declarations from build configuration
type Extractor interface {
	// FromFeaturesAsMap returns declared locks by the lock name
	FromFeaturesAsMap(features []meta.Feature) map[string]meta.Lock
	// FromBuildParameters returns locks exposed in the build parameters
	FromBuildParameters(params map[string]string) []meta.Lock
	// AsBuildParameter returns the build parameter name for the lock
	AsBuildParameter(lock meta.Lock) string
}

// NewExtractor returns the default lock extractor
func NewExtractor() Extractor {
	return &locks{}
}

type locks struct{}

func (l *locks) FromFeaturesAsMap(features []meta.Feature) map[string]meta.Lock {
	result := make(map[string]meta.Lock)
	for _, f := range features {
		if f.Type != Type {
			continue
		}

		for _, lock := range ParseDeclarations(f.Parameters[LocksParam]) {
			result[lock.Name] = lock
		}
	}
	return result
}

func (l *locks) FromBuildParameters(params map[string]string) []meta.Lock {
	var result []meta.Lock
	for name, value := range params {
		if !strings.HasPrefix(name, ParamPrefix) {
			continue
		}

		rest := name[len(ParamPrefix):]
		idx := strings.Index(rest, ".")
		if idx <= 0 || idx == len(rest)-1 {
			continue
		}

		lockType, ok := meta.ParseLockType(rest[:idx])
		if !ok {
			continue
		}

		result = append(result, meta.Lock{
			Name:  rest[idx+1:],
			Type:  lockType,
			Value: value,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

func (l *locks) AsBuildParameter(lock meta.Lock) string {
	return fmt.Sprintf("%s%s.%s", ParamPrefix, lock.Type.Name(), lock.Name)
}

// ParseDeclarations parses lock declarations: `<name> readLock|writeLock [value]`.
// Lines that can not be parsed are skipped.
func ParseDeclarations(text string) []meta.Lock {
	var result []meta.Lock
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			if len(fields) > 0 {
				log.Debugf("skip lock declaration %q", line)
			}
			continue
		}

		lockType, ok := meta.ParseLockType(fields[1])
		if !ok {
			log.Debugf("skip lock declaration %q: unknown lock type", line)
			continue
		}

		lock := meta.NewLock(fields[0], lockType)
		if len(fields) > 2 {
			lock.Value = strings.Join(fields[2:], " ")
		}
		result = append(result, lock)
	}
	return result
}

// FormatDeclarations formats locks in the declaration syntax
func FormatDeclarations(locks ...meta.Lock) string {
	lines := make([]string, 0, len(locks))
	for _, lock := range locks {
		if lock.Value == "" {
			lines = append(lines, fmt.Sprintf("%s %s", lock.Name, lock.Type.Name()))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", lock.Name, lock.Type.Name(), lock.Value))
	}
	return strings.Join(lines, "\n")
}

// BuildParameters returns build parameters exposing the locks, as they are
// provided for queued builds
func BuildParameters(e Extractor, locks map[string]meta.Lock) map[string]string {
	params := make(map[string]string, len(locks))
	for _, lock := range locks {
		params[e.AsBuildParameter(lock)] = lock.Value
	}
	return params
}
