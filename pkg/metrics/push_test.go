package metrics

import (
	"testing"

	"github.com/fagongzi/util/task"
	"github.com/stretchr/testify/assert"
)

func TestPushDisabled(t *testing.T) {
	runner := task.NewRunner()
	defer runner.Stop()

	err := Push(runner, &MetricConfig{})
	assert.Nilf(t, err, "check push disabled failed with %+v", err)
}
