package meta

import (
	"fmt"
)

// LockType lock type
type LockType byte

var (
	// ReadLock shared access to the resource
	ReadLock = LockType(0)
	// WriteLock exclusive access to the resource
	WriteLock = LockType(1)
)

// Name returns name of the lock type, as it is used in lock declarations
func (t LockType) Name() string {
	switch t {
	case ReadLock:
		return "readLock"
	case WriteLock:
		return "writeLock"
	}

	return "unknown"
}

func (t LockType) String() string {
	return t.Name()
}

// ParseLockType returns the lock type by name
func ParseLockType(name string) (LockType, bool) {
	switch name {
	case "readLock":
		return ReadLock, true
	case "writeLock":
		return WriteLock, true
	}

	return 0, false
}

// Lock a request or a grant of access to the named resource.
// Value is empty unless a specific value of a custom resource is requested or taken.
type Lock struct {
	Name  string   `json:"name"`
	Type  LockType `json:"type"`
	Value string   `json:"value,omitempty"`
}

// NewLock returns a lock without value
func NewLock(name string, lockType LockType) Lock {
	return Lock{
		Name: name,
		Type: lockType,
	}
}

// WithValue returns a copy of the lock with the value
func (l Lock) WithValue(value string) Lock {
	l.Value = value
	return l
}

// Same returns true if both locks are taken on the same resource with the same type
func (l Lock) Same(other Lock) bool {
	return l.Name == other.Name && l.Type == other.Type
}

func (l Lock) String() string {
	if l.Value == "" {
		return fmt.Sprintf("%s(%s)", l.Name, l.Type.Name())
	}

	return fmt.Sprintf("%s(%s:%s)", l.Name, l.Type.Name(), l.Value)
}

// TakenLock holders of the locks on one resource.
// Both maps are keyed by build id, read holders carry the taken value.
// Nothing is validated here, the values are observed as they are.
type TakenLock struct {
	ReadLocks  map[uint64]string `json:"read"`
	WriteLocks map[uint64]string `json:"write"`
}

// NewTakenLock returns an empty taken lock
func NewTakenLock() *TakenLock {
	return &TakenLock{
		ReadLocks:  make(map[uint64]string),
		WriteLocks: make(map[uint64]string),
	}
}

// AddLock adds the lock held by the build
func (t *TakenLock) AddLock(buildID uint64, lock Lock) {
	switch lock.Type {
	case ReadLock:
		t.ReadLocks[buildID] = lock.Value
	case WriteLock:
		t.WriteLocks[buildID] = lock.Value
	}
}

// HasReadLocks returns true if there is at least one read holder
func (t *TakenLock) HasReadLocks() bool {
	return len(t.ReadLocks) > 0
}

// HasWriteLocks returns true if there is at least one write holder
func (t *TakenLock) HasWriteLocks() bool {
	return len(t.WriteLocks) > 0
}

// ReadValues returns non empty values held by read holders
func (t *TakenLock) ReadValues() []string {
	var values []string
	for _, value := range t.ReadLocks {
		if value != "" {
			values = append(values, value)
		}
	}
	return values
}
