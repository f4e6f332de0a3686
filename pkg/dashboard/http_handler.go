package dashboard

import (
	"errors"
	"net/http"

	"github.com/fagongzi/util/format"
	"github.com/infinivision/buildlocks/pkg/meta"
	"github.com/infinivision/buildlocks/pkg/util"
	"github.com/labstack/echo"
)

const (
	succeed = 0
	failed  = 1
)

var (
	errMissingParam = errors.New("missing param")
	errResourceType = errors.New("unknown resource type")
)

type resourceBody struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Quota   *int     `json:"quota"`
	Values  []string `json:"values"`
	Enabled *bool    `json:"enabled"`
}

func (b *resourceBody) resource() (*meta.Resource, error) {
	resourceType, ok := meta.ParseResourceType(b.Type)
	if !ok {
		return nil, errResourceType
	}

	var r *meta.Resource
	switch resourceType {
	case meta.InfiniteResource:
		r = meta.NewInfiniteResource(b.Name)
	case meta.QuotedResource:
		quota := meta.QuotaInfinite
		if b.Quota != nil {
			quota = *b.Quota
		}
		r = meta.NewQuotedResource(b.Name, quota)
	case meta.CustomResource:
		r = meta.NewCustomResource(b.Name, b.Values)
	}

	if b.Enabled != nil {
		r.Enabled = *b.Enabled
	}
	return r, nil
}

func readUInt64Param(name string, ctx echo.Context) (uint64, error) {
	param := ctx.Param(name)
	if param == "" {
		return 0, errMissingParam
	}

	value, err := format.ParseStrUInt64(param)
	if err != nil {
		return 0, err
	}

	return value, nil
}

func jsonResult(ctx echo.Context, value interface{}, err error) error {
	result := meta.JSONResult{
		Code:  succeed,
		Value: value,
	}
	if err != nil {
		result.Code = failed
		result.Error = err.Error()
		result.Value = nil
	}

	return ctx.JSON(http.StatusOK, result)
}

func (s *Dashboard) status() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		value, err := util.Stats()
		return jsonResult(ctx, value, err)
	}
}

func (s *Dashboard) resources() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		pid := ctx.Param("pid")
		if ctx.QueryParam("own") == "true" {
			value, err := s.projects.OwnResources(pid)
			return jsonResult(ctx, value, err)
		}

		value, err := s.projects.Resources(pid)
		return jsonResult(ctx, value, err)
	}
}

func (s *Dashboard) addResource() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		body := &resourceBody{}
		err := util.ReadJSONFromBody(ctx.Request().Body, body)
		if err != nil {
			return ctx.NoContent(http.StatusBadRequest)
		}

		r, err := body.resource()
		if err != nil {
			return ctx.NoContent(http.StatusBadRequest)
		}

		value, err := s.projects.AddResource(ctx.Param("pid"), r)
		return jsonResult(ctx, value, err)
	}
}

func (s *Dashboard) editResource() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		body := &resourceBody{}
		err := util.ReadJSONFromBody(ctx.Request().Body, body)
		if err != nil {
			return ctx.NoContent(http.StatusBadRequest)
		}

		r, err := body.resource()
		if err != nil {
			return ctx.NoContent(http.StatusBadRequest)
		}

		err = s.projects.EditResource(ctx.Param("pid"), ctx.Param("rid"), r)
		return jsonResult(ctx, nil, err)
	}
}

func (s *Dashboard) deleteResource() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		err := s.projects.DeleteResource(ctx.Param("pid"), ctx.Param("rid"))
		return jsonResult(ctx, nil, err)
	}
}

func (s *Dashboard) setEnabled(enabled bool) func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		value, err := s.projects.SetEnabled(ctx.Param("pid"), ctx.Param("rid"), enabled)
		return jsonResult(ctx, value, err)
	}
}

func (s *Dashboard) overrides() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		return jsonResult(ctx, s.projects.Overrides(ctx.Param("pid")), nil)
	}
}

func (s *Dashboard) takenLocks() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		return jsonResult(ctx, s.c.TakenLocks(ctx.Param("pid")), nil)
	}
}

func (s *Dashboard) queueBuild() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		b := &meta.Build{}
		err := util.ReadJSONFromBody(ctx.Request().Body, b)
		if err != nil || b.ID == 0 {
			return ctx.NoContent(http.StatusBadRequest)
		}

		err = s.c.Queue(b)
		return jsonResult(ctx, b.ID, err)
	}
}

func (s *Dashboard) build() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		id, err := readUInt64Param("id", ctx)
		if err != nil {
			return ctx.NoContent(http.StatusBadRequest)
		}

		value, err := s.c.Build(id)
		return jsonResult(ctx, value, err)
	}
}

func (s *Dashboard) removeBuild() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		id, err := readUInt64Param("id", ctx)
		if err != nil {
			return ctx.NoContent(http.StatusBadRequest)
		}

		return jsonResult(ctx, nil, s.c.Remove(id))
	}
}

func (s *Dashboard) startBuild() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		id, err := readUInt64Param("id", ctx)
		if err != nil {
			return ctx.NoContent(http.StatusBadRequest)
		}

		value, err := s.c.Start(id)
		return jsonResult(ctx, value, err)
	}
}

func (s *Dashboard) finishBuild() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		id, err := readUInt64Param("id", ctx)
		if err != nil {
			return ctx.NoContent(http.StatusBadRequest)
		}

		return jsonResult(ctx, nil, s.c.Finish(id))
	}
}

func (s *Dashboard) buildLocks() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		id, err := readUInt64Param("id", ctx)
		if err != nil {
			return ctx.NoContent(http.StatusBadRequest)
		}

		return jsonResult(ctx, s.c.Locks(id), nil)
	}
}

func (s *Dashboard) unavailableLocks() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		id, err := readUInt64Param("id", ctx)
		if err != nil {
			return ctx.NoContent(http.StatusBadRequest)
		}

		value, err := s.c.UnavailableLocks(id)
		return jsonResult(ctx, value, err)
	}
}

func (s *Dashboard) dispatch() func(ctx echo.Context) error {
	return func(ctx echo.Context) error {
		value, err := s.c.Dispatch()
		return jsonResult(ctx, value, err)
	}
}
