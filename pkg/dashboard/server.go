package dashboard

import (
	"context"

	"github.com/infinivision/buildlocks/pkg/core"
	"github.com/infinivision/buildlocks/pkg/resource"
	"github.com/labstack/echo"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	version = "/v1"
)

// Cfg dashboard cfg
type Cfg struct {
	Addr string
}

// Dashboard an api dashboard server
type Dashboard struct {
	cfg      Cfg
	server   *echo.Echo
	projects *resource.Projects
	c        *core.Coordinator
}

// NewDashboard returns a dashboard server
func NewDashboard(cfg Cfg, projects *resource.Projects, c *core.Coordinator) *Dashboard {
	s := &Dashboard{
		cfg:      cfg,
		server:   echo.New(),
		projects: projects,
		c:        c,
	}

	s.server.HideBanner = true
	s.initRoute()
	return s
}

func (s *Dashboard) initRoute() {
	s.server.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	versionGroup := s.server.Group(version)
	versionGroup.GET("/status", s.status())

	versionGroup.GET("/projects/:pid/resources", s.resources())
	versionGroup.POST("/projects/:pid/resources", s.addResource())
	versionGroup.PUT("/projects/:pid/resources/:rid", s.editResource())
	versionGroup.DELETE("/projects/:pid/resources/:rid", s.deleteResource())
	versionGroup.PUT("/projects/:pid/resources/:rid/enable", s.setEnabled(true))
	versionGroup.PUT("/projects/:pid/resources/:rid/disable", s.setEnabled(false))
	versionGroup.GET("/projects/:pid/overrides", s.overrides())
	versionGroup.GET("/projects/:pid/locks", s.takenLocks())

	versionGroup.POST("/builds", s.queueBuild())
	versionGroup.GET("/builds/:id", s.build())
	versionGroup.DELETE("/builds/:id", s.removeBuild())
	versionGroup.PUT("/builds/:id/start", s.startBuild())
	versionGroup.PUT("/builds/:id/finish", s.finishBuild())
	versionGroup.GET("/builds/:id/locks", s.buildLocks())
	versionGroup.GET("/builds/:id/unavailable", s.unavailableLocks())
	versionGroup.PUT("/dispatch", s.dispatch())
}

// Start start the dashboard
func (s *Dashboard) Start() error {
	return s.server.Start(s.cfg.Addr)
}

// Stop stop the dashboard
func (s *Dashboard) Stop() error {
	return s.server.Shutdown(context.TODO())
}
