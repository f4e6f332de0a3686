package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLockType(t *testing.T) {
	for _, lockType := range []LockType{ReadLock, WriteLock} {
		value, ok := ParseLockType(lockType.Name())
		assert.True(t, ok, "check parse lock type failed")
		assert.Equal(t, lockType, value, "check parse lock type failed")
	}

	_, ok := ParseLockType("READ")
	assert.False(t, ok, "check parse unknown lock type failed")
}

func TestLock(t *testing.T) {
	lock := NewLock("browser", ReadLock)
	value := lock.WithValue("chrome")
	assert.Equal(t, "", lock.Value, "check with value copy failed")
	assert.True(t, lock.Same(value), "check same failed")
	assert.False(t, lock.Same(NewLock("browser", WriteLock)), "check same failed")
	assert.Equal(t, "browser(readLock)", lock.String(), "check string failed")
	assert.Equal(t, "browser(readLock:chrome)", value.String(), "check string failed")
}

func TestTakenLock(t *testing.T) {
	taken := NewTakenLock()
	assert.False(t, taken.HasReadLocks(), "check empty taken lock failed")
	assert.False(t, taken.HasWriteLocks(), "check empty taken lock failed")

	taken.AddLock(1, NewLock("browser", ReadLock).WithValue("chrome"))
	taken.AddLock(2, NewLock("browser", ReadLock))
	taken.AddLock(3, NewLock("browser", WriteLock))
	assert.True(t, taken.HasReadLocks(), "check read locks failed")
	assert.True(t, taken.HasWriteLocks(), "check write locks failed")
	assert.Equal(t, []string{"chrome"}, taken.ReadValues(), "check read values failed")
}

func TestResource(t *testing.T) {
	assert.True(t, NewInfiniteResource("r").IsInfinite(), "check infinite failed")
	assert.True(t, NewQuotedResource("r", -5).IsInfinite(), "check infinite quota failed")
	assert.Equal(t, QuotaInfinite, NewQuotedResource("r", -5).Quota, "check infinite quota failed")
	assert.False(t, NewQuotedResource("r", 0).IsInfinite(), "check quota failed")
	assert.False(t, NewCustomResource("r", []string{"a"}).IsInfinite(), "check custom failed")

	r := NewCustomResource("r", []string{"a", "b"})
	disabled := r.InState(false)
	assert.True(t, r.Enabled, "check in state copy failed")
	assert.False(t, disabled.Enabled, "check in state failed")

	disabled.Values[0] = "changed"
	assert.Equal(t, "a", r.Values[0], "check clone failed")
}

func TestBuildClone(t *testing.T) {
	b := &Build{
		ID:           1,
		Features:     []Feature{{Type: "f", Parameters: map[string]string{"k": "v"}}},
		Parameters:   map[string]string{"p": "v"},
		Dependencies: []uint64{2},
	}
	b.SetAttribute("a", "v")

	value := b.Clone()
	value.Features[0].Parameters["k"] = "changed"
	value.Parameters["p"] = "changed"
	value.SetAttribute("a", "changed")
	value.Dependencies[0] = 3

	assert.Equal(t, "v", b.Features[0].Parameters["k"], "check clone features failed")
	assert.Equal(t, "v", b.Parameters["p"], "check clone parameters failed")
	attr, _ := b.Attribute("a")
	assert.Equal(t, "v", attr, "check clone attributes failed")
	assert.Equal(t, uint64(2), b.Dependencies[0], "check clone dependencies failed")
}
