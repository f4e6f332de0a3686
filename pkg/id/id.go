package id

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sony/sonyflake"
)

// epoch start time of the snowflake ids, fixed so that ids stay unique
// across server restarts
var epoch = time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)

// Generator resource id generator
type Generator interface {
	// Gen returns a new numeric id
	Gen() (uint64, error)
}

// NewMemGenerator returns a generator counting from 1
func NewMemGenerator() Generator {
	return &memGenerator{}
}

// NewSnowflakeGenerator returns a id generator implemention by snowflake
func NewSnowflakeGenerator(machineID uint16) Generator {
	return &snowflakeGenerator{
		gen: sonyflake.NewSonyflake(sonyflake.Settings{
			StartTime: epoch,
			MachineID: func() (uint16, error) {
				return machineID, nil
			},
		}),
	}
}

// ResourceID returns a new id for the resource owned by the project
func ResourceID(gen Generator, projectID string) (string, error) {
	value, err := gen.Gen()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s_RES_%d", strings.ToUpper(projectID), value), nil
}

type memGenerator struct {
	value uint64
}

func (g *memGenerator) Gen() (uint64, error) {
	return atomic.AddUint64(&g.value, 1), nil
}

type snowflakeGenerator struct {
	gen *sonyflake.Sonyflake
}

func (g *snowflakeGenerator) Gen() (uint64, error) {
	return g.gen.NextID()
}
