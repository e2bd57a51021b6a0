package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/flowlearn/pawfessor/core/course"
)

var errContentNotFoundInCtx = errors.New("content object not found in echo.Context")

type contentApi struct {
	svc *course.Service
}

func registerContentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := contentApi{svc: deps.CourseSvc}
	owner := contentOwnerMiddleware(api.svc)

	cg := g.Group("/content", jwt)
	cg.PUT("/:id", api.update, owner)
	cg.DELETE("/:id", api.destroy, owner)
	cg.POST("/:id/progress", api.recordProgress)
	cg.POST("/:id/submissions", api.submit)
}

func ctxContent(ctx echo.Context) (course.Content, error) {
	c, ok := ctx.Get(contextObjectKey).(course.Content)
	if !ok {
		return course.Content{}, errors.Wrap(errContentNotFoundInCtx, "retrieving object from context")
	}
	return c, nil
}

// Handlers

func (api *contentApi) update(ctx echo.Context) error {
	c, err := ctxContent(ctx)
	if err != nil {
		return err
	}

	var data course.UpdateContent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateContent")
	}

	if c, err = api.svc.UpdateContent(ctx.Request().Context(), c.ID, data); err != nil {
		return errors.Wrap(err, "updating content")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *contentApi) destroy(ctx echo.Context) error {
	c, err := ctxContent(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteContent(ctx.Request().Context(), c.ID); err != nil {
		return errors.Wrap(err, "deleting content")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// recordProgress requires an enrollment in the content's course.
func (api *contentApi) recordProgress(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data course.RecordProgress
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RecordProgress")
	}

	p, err := api.svc.RecordProgress(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "recording progress")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *contentApi) submit(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data course.NewSubmission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}

	s, err := api.svc.Submit(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "submitting homework")
	}
	return ctx.JSON(http.StatusCreated, s)
}
