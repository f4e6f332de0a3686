package core

import (
	"sync"

	"github.com/infinivision/buildlocks/pkg/meta"
)

// StartContext runtime context of the starting build
type StartContext struct {
	sync.Mutex

	Build  *meta.Build
	params map[string]string
}

// NewStartContext returns the start context of the build
func NewStartContext(b *meta.Build) *StartContext {
	return &StartContext{
		Build:  b,
		params: make(map[string]string),
	}
}

// AddSharedParameter adds the parameter provided to the build at runtime
func (ctx *StartContext) AddSharedParameter(name, value string) {
	ctx.Lock()
	ctx.params[name] = value
	ctx.Unlock()
}

// SharedParameters returns the added parameters
func (ctx *StartContext) SharedParameters() map[string]string {
	ctx.Lock()
	defer ctx.Unlock()

	result := make(map[string]string, len(ctx.params))
	for k, v := range ctx.params {
		result[k] = v
	}
	return result
}
