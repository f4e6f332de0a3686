package metrics

import (
	"context"
	"time"

	"github.com/fagongzi/log"
	"github.com/fagongzi/util/task"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// MetricConfig is the metric configuration.
type MetricConfig struct {
	PushJob      string        `json:"job"`
	PushAddress  string        `json:"address"`
	PushInterval time.Duration `json:"interval"`
}

func prometheusPushClient(ctx context.Context, job, addr string, interval time.Duration) {
	timer := time.NewTicker(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Infof("prometheus push client stopped")
			return
		case <-timer.C:
			err := push.FromGatherer(
				job, push.HostnameGroupingKey(),
				addr,
				prometheus.DefaultGatherer,
			)
			if err != nil {
				log.Errorf("push metrics to prometheus pushgateway failed with %+v", err)
			}
		}
	}
}

// Push pushes metrics in background, the task is stopped with the runner.
func Push(runner *task.Runner, cfg *MetricConfig) error {
	if cfg.PushInterval == 0 || len(cfg.PushAddress) == 0 {
		log.Infof("disable prometheus push client")
		return nil
	}

	log.Info("start prometheus push client")
	_, err := runner.RunCancelableTask(func(ctx context.Context) {
		prometheusPushClient(ctx, cfg.PushJob, cfg.PushAddress, cfg.PushInterval)
	})
	return err
}
