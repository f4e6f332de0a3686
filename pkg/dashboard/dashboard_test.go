package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/infinivision/buildlocks/pkg/artifact"
	"github.com/infinivision/buildlocks/pkg/builds"
	"github.com/infinivision/buildlocks/pkg/core"
	"github.com/infinivision/buildlocks/pkg/event"
	"github.com/infinivision/buildlocks/pkg/feature"
	"github.com/infinivision/buildlocks/pkg/meta"
	"github.com/infinivision/buildlocks/pkg/resource"
	"github.com/infinivision/buildlocks/pkg/storage"
	"github.com/stretchr/testify/assert"
)

type result struct {
	Code  int             `json:"code"`
	Error string          `json:"error"`
	Value json.RawMessage `json:"value"`
}

func newTestDashboard(t *testing.T) (*Dashboard, func()) {
	dir := fmt.Sprintf("%s/buildlocks-dashboard-%d", os.TempDir(), time.Now().UnixNano())
	artifacts, err := artifact.NewFSStorage(dir)
	assert.Nilf(t, err, "check artifacts failed with %+v", err)

	hub := event.NewHub()
	s, err := storage.NewLocksStorage(artifacts, storage.WithEvents(hub))
	assert.Nilf(t, err, "check storage failed with %+v", err)

	projects := resource.NewProjects(nil)
	assert.Nil(t, projects.AddProject("p1", ""), "check add project failed")

	c := core.NewCoordinator(builds.NewRegistry(hub), projects, s, core.WithEvents(hub))
	return NewDashboard(Cfg{}, projects, c), func() {
		c.Stop()
		s.Close()
		os.RemoveAll(dir)
	}
}

func do(t *testing.T, s *Dashboard, method, path string, body interface{}) (int, *result) {
	var data []byte
	if body != nil {
		value, err := json.Marshal(body)
		assert.Nilf(t, err, "check marshal failed with %+v", err)
		data = value
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	s.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		return rec.Code, nil
	}

	value := &result{}
	err := json.Unmarshal(rec.Body.Bytes(), value)
	assert.Nilf(t, err, "check response failed with %+v", err)
	return rec.Code, value
}

func TestResourcesAPI(t *testing.T) {
	s, closer := newTestDashboard(t)
	defer closer()

	code, res := do(t, s, http.MethodPost, "/v1/projects/p1/resources", map[string]interface{}{
		"name":   "browser",
		"type":   "custom",
		"values": []string{"chrome", "firefox"},
	})
	assert.Equal(t, http.StatusOK, code, "check add resource failed")
	assert.Equal(t, succeed, res.Code, "check add resource failed")

	r := &meta.Resource{}
	assert.Nil(t, json.Unmarshal(res.Value, r), "check add resource failed")
	assert.Equal(t, "browser", r.Name, "check add resource failed")
	assert.True(t, r.Enabled, "check add resource failed")

	_, res = do(t, s, http.MethodPost, "/v1/projects/p1/resources", map[string]interface{}{
		"name": "browser",
		"type": "infinite",
	})
	assert.Equal(t, failed, res.Code, "check duplicate resource failed")
	assert.NotEqual(t, "", res.Error, "check duplicate resource failed")

	code, _ = do(t, s, http.MethodPost, "/v1/projects/p1/resources", map[string]interface{}{
		"name": "x",
		"type": "unknown",
	})
	assert.Equal(t, http.StatusBadRequest, code, "check bad resource type failed")

	_, res = do(t, s, http.MethodPut, fmt.Sprintf("/v1/projects/p1/resources/%s/disable", r.ID), nil)
	assert.Equal(t, succeed, res.Code, "check disable failed")

	_, res = do(t, s, http.MethodGet, "/v1/projects/p1/resources", nil)
	var values []*meta.Resource
	assert.Nil(t, json.Unmarshal(res.Value, &values), "check resources failed")
	assert.Equal(t, 1, len(values), "check resources failed")
	assert.False(t, values[0].Enabled, "check resources failed")

	_, res = do(t, s, http.MethodDelete, fmt.Sprintf("/v1/projects/p1/resources/%s", r.ID), nil)
	assert.Equal(t, succeed, res.Code, "check delete failed")

	_, res = do(t, s, http.MethodGet, "/v1/projects/missing/resources", nil)
	assert.Equal(t, failed, res.Code, "check missing project failed")
}

func TestBuildsAPI(t *testing.T) {
	s, closer := newTestDashboard(t)
	defer closer()

	_, res := do(t, s, http.MethodPost, "/v1/projects/p1/resources", map[string]interface{}{
		"name":  "agents",
		"type":  "quoted",
		"quota": 1,
	})
	assert.Equal(t, succeed, res.Code, "check add resource failed")

	for id := uint64(1); id <= 2; id++ {
		_, res = do(t, s, http.MethodPost, "/v1/builds", &meta.Build{
			ID:          id,
			ProjectID:   "p1",
			BuildTypeID: "bt",
			Features: []meta.Feature{
				{
					Type:       feature.Type,
					Parameters: map[string]string{feature.LocksParam: "agents readLock"},
				},
			},
		})
		assert.Equal(t, succeed, res.Code, "check queue failed")
	}

	code, _ := do(t, s, http.MethodPost, "/v1/builds", &meta.Build{})
	assert.Equal(t, http.StatusBadRequest, code, "check queue without id failed")

	_, res = do(t, s, http.MethodPut, "/v1/dispatch", nil)
	assert.Equal(t, succeed, res.Code, "check dispatch failed")
	dispatched := &core.DispatchResult{}
	assert.Nil(t, json.Unmarshal(res.Value, dispatched), "check dispatch failed")
	assert.Equal(t, []uint64{1}, dispatched.Admitted, "check dispatch failed")
	assert.Equal(t, 1, len(dispatched.Waiting[2]), "check dispatch failed")

	_, res = do(t, s, http.MethodPut, "/v1/builds/1/start", nil)
	assert.Equal(t, succeed, res.Code, "check start failed")

	_, res = do(t, s, http.MethodGet, "/v1/builds/1/locks", nil)
	locks := make(map[string]meta.Lock)
	assert.Nil(t, json.Unmarshal(res.Value, &locks), "check locks failed")
	assert.Equal(t, meta.NewLock("agents", meta.ReadLock), locks["agents"], "check locks failed")

	_, res = do(t, s, http.MethodGet, "/v1/builds/2/unavailable", nil)
	var unavailable []meta.Lock
	assert.Nil(t, json.Unmarshal(res.Value, &unavailable), "check unavailable failed")
	assert.Equal(t, []meta.Lock{meta.NewLock("agents", meta.ReadLock)}, unavailable, "check unavailable failed")

	_, res = do(t, s, http.MethodGet, "/v1/projects/p1/locks", nil)
	taken := make(map[string]*meta.TakenLock)
	assert.Nil(t, json.Unmarshal(res.Value, &taken), "check taken locks failed")
	assert.Equal(t, 2, len(taken["agents"].ReadLocks), "check taken locks failed")

	_, res = do(t, s, http.MethodPut, "/v1/builds/1/finish", nil)
	assert.Equal(t, succeed, res.Code, "check finish failed")

	_, res = do(t, s, http.MethodPut, "/v1/builds/1/finish", nil)
	assert.Equal(t, failed, res.Code, "check finish twice failed")

	_, res = do(t, s, http.MethodDelete, "/v1/builds/2", nil)
	assert.Equal(t, succeed, res.Code, "check remove failed")

	_, res = do(t, s, http.MethodGet, "/v1/builds/2", nil)
	assert.Equal(t, failed, res.Code, "check removed build failed")

	code, _ = do(t, s, http.MethodGet, "/v1/builds/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code, "check bad build id failed")
}

func TestMetrics(t *testing.T) {
	s, closer := newTestDashboard(t)
	defer closer()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "check metrics failed")
	assert.Contains(t, rec.Body.String(), "buildlocks_", "check metrics failed")
}
