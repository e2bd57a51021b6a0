package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/flowlearn/pawfessor/core"
	"github.com/flowlearn/pawfessor/core/course"
	"github.com/flowlearn/pawfessor/core/generator"
	"github.com/flowlearn/pawfessor/core/memory"
	"github.com/flowlearn/pawfessor/core/profile"
)

var errCourseNotFoundInCtx = errors.New("course object not found in echo.Context")

type courseApi struct {
	svc          *course.Service
	generatorSvc *generator.Service
	memories     *memory.Registry
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{
		svc:          deps.CourseSvc,
		generatorSvc: deps.GeneratorSvc,
		memories:     deps.Memories,
	}
	author := roleMiddleware(profile.RoleTeacher, profile.RoleAdmin)
	view := courseMiddleware(api.svc, false)
	edit := courseMiddleware(api.svc, true)

	cg := g.Group("/courses", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, author)
	cg.POST("/generate", api.generate, author)

	// detail endpoints
	cg.GET("/:id", api.retrieve, view)
	cg.PUT("/:id", api.update, edit)
	cg.DELETE("/:id", api.destroy, edit)
	cg.POST("/:id/enroll", api.enroll, view)
	cg.DELETE("/:id/enroll", api.unenroll, view)
	cg.GET("/:id/content", api.listContent, view)
	cg.POST("/:id/content", api.addContent, edit)
	cg.GET("/:id/progress", api.progress, view)

	mg := g.Group("/me", jwt)
	mg.GET("/courses", api.myCourses)
}

func ctxCourse(ctx echo.Context) (course.Course, error) {
	c, ok := ctx.Get(contextObjectKey).(course.Course)
	if !ok {
		return course.Course{}, errors.Wrap(errCourseNotFoundInCtx, "retrieving object from context")
	}
	return c, nil
}

// Handlers

// query lists the published courses; authors also see their own drafts with `created_by=<their id>`
// and admins see everything.
func (api *courseApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := &course.QueryFilter{
		Search:      ctx.QueryParam("search"),
		Level:       ctx.QueryParam("level"),
		CreatedBy:   ctx.QueryParam("created_by"),
		IsPublished: queryBool(ctx, "is_published"),
	}
	if !claims.IsAdmin() && core.CleanString(filter.CreatedBy) != claims.Subject {
		published := true
		filter.IsPublished = &published
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.QueryCourses(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data course.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}

	c, err := api.svc.CreateCourse(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

// generate asks the AI provider for an outline and stores it as an unpublished course.
// With personalize set, the author's memories tailor the outline.
func (api *courseApi) generate(ctx echo.Context) error {
	if api.generatorSvc == nil {
		return errGeneratorDisabled
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data GenerateRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateRequest")
	}
	if text, ok, err := readUploadedSource(ctx); err != nil {
		return err
	} else if ok {
		data.SourceText = text
	}
	req := generator.Request{
		Topic:      data.Topic,
		SourceText: data.SourceText,
		Level:      data.Level,
	}
	if data.Personalize && api.memories != nil {
		req.Personalization = api.memories.For(claims.Subject).Summary()
	}

	outline, err := api.generatorSvc.Generate(ctx.Request().Context(), req)
	if err != nil {
		return errors.Wrap(err, "generating outline")
	}
	c, contents, err := api.svc.CreateFromOutline(ctx.Request().Context(), outline, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating course from outline")
	}
	return ctx.JSON(http.StatusCreated, CourseDetail{Course: c, Content: contents})
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	c, err := ctxCourse(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) update(ctx echo.Context) error {
	c, err := ctxCourse(ctx)
	if err != nil {
		return err
	}

	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}

	if c, err = api.svc.UpdateCourse(ctx.Request().Context(), c.ID, data); err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	c, err := ctxCourse(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteCourse(ctx.Request().Context(), c.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	c, err := ctxCourse(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	e, err := api.svc.Enroll(ctx.Request().Context(), claims.Subject, c.ID)
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *courseApi) unenroll(ctx echo.Context) error {
	c, err := ctxCourse(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err = api.svc.Unenroll(ctx.Request().Context(), claims.Subject, c.ID); err != nil {
		return errors.Wrap(err, "unenrolling")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) listContent(ctx echo.Context) error {
	c, err := ctxCourse(ctx)
	if err != nil {
		return err
	}

	contents, err := api.svc.ListContent(ctx.Request().Context(), c.ID)
	if err != nil {
		return errors.Wrap(err, "listing content")
	}
	if contents == nil {
		contents = []course.Content{}
	}
	return ctx.JSON(http.StatusOK, contents)
}

func (api *courseApi) addContent(ctx echo.Context) error {
	c, err := ctxCourse(ctx)
	if err != nil {
		return err
	}

	var data course.NewContent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewContent")
	}

	content, err := api.svc.AddContent(ctx.Request().Context(), c.ID, data)
	if err != nil {
		return errors.Wrap(err, "adding content")
	}
	return ctx.JSON(http.StatusCreated, content)
}

func (api *courseApi) progress(ctx echo.Context) error {
	c, err := ctxCourse(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cp, err := api.svc.CourseProgress(ctx.Request().Context(), claims.Subject, c.ID)
	if err != nil {
		return errors.Wrap(err, "computing course progress")
	}
	return ctx.JSON(http.StatusOK, cp)
}

func (api *courseApi) myCourses(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	courses, err := api.svc.UserCourses(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying user courses")
	}
	if courses == nil {
		courses = []course.UserCourse{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

type (
	// GenerateRequest is sent as JSON, or as a multipart form carrying the source document in a "source" file.
	GenerateRequest struct {
		Topic       string `json:"topic" form:"topic"`
		SourceText  string `json:"source_text" form:"source_text"`
		Level       string `json:"level" form:"level"`
		Personalize bool   `json:"personalize" form:"personalize"`
	}

	CourseDetail struct {
		course.Course
		Content []course.Content `json:"content"`
	}
)
