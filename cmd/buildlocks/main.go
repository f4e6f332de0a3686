package main

import (
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fagongzi/log"
	"github.com/fagongzi/util/task"
	"github.com/infinivision/buildlocks/pkg/artifact"
	"github.com/infinivision/buildlocks/pkg/builds"
	"github.com/infinivision/buildlocks/pkg/core"
	"github.com/infinivision/buildlocks/pkg/dashboard"
	"github.com/infinivision/buildlocks/pkg/event"
	"github.com/infinivision/buildlocks/pkg/id"
	"github.com/infinivision/buildlocks/pkg/metrics"
	"github.com/infinivision/buildlocks/pkg/registry"
	"github.com/infinivision/buildlocks/pkg/resource"
	"github.com/infinivision/buildlocks/pkg/storage"
	"github.com/infinivision/buildlocks/pkg/util"
)

var (
	nodeID            = flag.Uint("id", 1, "Node ID, used to generate resource ids")
	addr              = flag.String("addr", "127.0.0.1:8080", "Addr: buildlocks api http server")
	addrArtifacts     = flag.String("addr-artifacts", "file:///tmp/buildlocks/artifacts", "Addr: build artifacts storage address with protocol")
	addrPPROF         = flag.String("addr-pprof", "", "Addr: pprof addr")
	addrRegistry      = flag.String("addr-registry", "", "Addr: registry center address with protocol, the api address is registered to it")
	catalog           = flag.String("catalog", "", "Projects and shared resources definition yaml file")
	cpu               = flag.Int("cpu", 0, "Limit: schedule threads count")
	cacheSize         = flag.Int("cache-size", 300, "Count: max cached taken locks records")
	resourcesInChains = flag.Bool("resources-in-chains", true, "Enable: resolve custom resource values for the composite build chains")
	autoStart         = flag.Bool("auto-start", false, "Enable: start the builds admitted by the queue dispatch")
	dispatchSec       = flag.Int("dispatch-interval", 0, "Interval(sec): queue dispatch, 0 disables the dispatch loop")
	dispatchDelayMS   = flag.Int("dispatch-delay", 0, "Delay(ms): queue dispatch after a build is queued or finished, 0 disables it")

	// metrics
	prometheusJob             = flag.String("metrics-job", "buildlocks", "Prometheus job name")
	prometheusPushgateway     = flag.String("metrics-push-addr", "", "Prometheus pushgateway address")
	prometheusPushIntervalSec = flag.Int("metrics-push-interval", 0, "Prometheus metrics push interval in seconds")

	version = flag.Bool("version", false, "Show version info")
)

func main() {
	flag.Parse()
	if *version && util.PrintVersion() {
		os.Exit(0)
	}

	log.InitLog()

	if *cpu == 0 {
		runtime.GOMAXPROCS(runtime.NumCPU())
	} else {
		runtime.GOMAXPROCS(*cpu)
	}

	if *addrPPROF != "" {
		go func() {
			log.Errorf("start pprof failed, errors:\n%+v",
				http.ListenAndServe(*addrPPROF, nil))
		}()
	}

	runner := task.NewRunner()
	err := metrics.Push(runner, &metrics.MetricConfig{
		PushJob:      *prometheusJob,
		PushAddress:  *prometheusPushgateway,
		PushInterval: time.Second * time.Duration(*prometheusPushIntervalSec),
	})
	if err != nil {
		log.Fatalf("start metrics push failed with %+v", err)
	}

	gen := id.NewSnowflakeGenerator(uint16(*nodeID))
	projects := resource.NewProjects(gen)
	if *catalog != "" {
		projects, err = resource.LoadFile(*catalog, gen)
		if err != nil {
			log.Fatalf("load catalog %s failed with %+v", *catalog, err)
		}
	}

	artifacts, err := artifact.CreateStorage(*addrArtifacts)
	if err != nil {
		log.Fatalf("init artifacts storage failed with %+v", err)
	}

	hub := event.NewHub()
	locks, err := storage.NewLocksStorage(artifacts,
		storage.WithCacheSize(*cacheSize),
		storage.WithEvents(hub))
	if err != nil {
		log.Fatalf("init locks storage failed with %+v", err)
	}

	c := core.NewCoordinator(builds.NewRegistry(hub), projects, locks, parseCoreOptions(hub)...)
	if *dispatchSec > 0 {
		_, err = runner.RunCancelableTask(c.RunDispatch)
		if err != nil {
			log.Fatalf("start dispatch loop failed with %+v", err)
		}
	}

	s := dashboard.NewDashboard(dashboard.Cfg{
		Addr: *addr,
	}, projects, c)
	go func() {
		if err := s.Start(); err != nil {
			log.Errorf("dashboard stopped with %+v", err)
		}
	}()

	var reg registry.Registry
	if *addrRegistry != "" {
		reg, err = registry.NewRegistry(*addrRegistry)
		if err != nil {
			log.Fatalf("init registry failed with %+v", err)
		}

		err = reg.Register(*addr)
		if err != nil {
			log.Fatalf("register %s failed with %+v", *addr, err)
		}
	}

	waitStop(func() {
		if reg != nil {
			reg.Stop()
		}
		s.Stop()
		runner.Stop()
		c.Stop()
		locks.Close()
		artifacts.Close()
	})
}

func parseCoreOptions(hub *event.Hub) []core.Option {
	var opts []core.Option
	opts = append(opts, core.WithEvents(hub))
	opts = append(opts, core.WithResourcesInChains(*resourcesInChains))
	opts = append(opts, core.WithAutoStart(*autoStart))
	if *dispatchSec > 0 {
		opts = append(opts, core.WithDispatchInterval(time.Second*time.Duration(*dispatchSec)))
	}
	if *dispatchDelayMS > 0 {
		opts = append(opts, core.WithDispatchOnEvents(time.Millisecond*time.Duration(*dispatchDelayMS)))
	}
	return opts
}

func waitStop(stop func()) {
	sc := make(chan os.Signal, 1)
	signal.Notify(sc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	sig := <-sc
	stop()
	log.Infof("exit: signal=<%d>.", sig)
	switch sig {
	case syscall.SIGTERM:
		log.Infof("exit: bye :-).")
		os.Exit(0)
	default:
		log.Infof("exit: bye :-(.")
		os.Exit(1)
	}
}
