package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/flowlearn/pawfessor/core"
	"github.com/flowlearn/pawfessor/core/memory"
	"github.com/flowlearn/pawfessor/core/profile"
)

type profileApi struct {
	svc      *profile.Service
	memories *memory.Registry
	conf     *core.Config
	validate *validator.Validate
}

func registerProfileAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := profileApi{
		svc:      deps.ProfileSvc,
		memories: deps.Memories,
		conf:     deps.Conf,
		validate: deps.Validate,
	}

	// authed endpoints
	g.POST("/auth/token-refresh", api.refreshToken, jwt)

	pg := g.Group("/profiles", jwt)
	pg.GET("", api.query, roleMiddleware(profile.RoleAdmin))
	pg.GET("/me", api.retrieveMe)
	pg.PUT("/me", api.updateMe)
	pg.DELETE("/me", api.deleteMe)

	// un-authed endpoints; registered after the group so its catch-all does not shadow them
	g.POST("/auth/login", api.login)
	g.POST("/profiles", api.register)
}

// Handlers

func (api *profileApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	if p, err = api.svc.SetLastLogin(ctx.Request().Context(), p); err != nil {
		return errors.Wrap(err, "setting lastLogin")
	}

	token, err := GenerateToken(GetProfileClaims(p, api.conf), api.conf.SecretKey)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *profileApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc, api.conf)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

// register signs up a student; other roles are granted through the admin CLI.
func (api *profileApi) register(ctx echo.Context) error {
	var data profile.NewProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProfile")
	}
	data.Role = profile.RoleStudent

	p, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating profile")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *profileApi) query(ctx echo.Context) error {
	filter := new(profile.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []profile.Profile{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	profiles, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying profiles")
	}
	if profiles == nil {
		profiles = []profile.Profile{}
	}
	return ctx.JSON(http.StatusOK, profiles)
}

func (api *profileApi) retrieveMe(ctx echo.Context) error {
	p, err := getContextProfile(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *profileApi) updateMe(ctx echo.Context) error {
	p, err := getContextProfile(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}

	var data profile.UpdateProfile
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}

	if p, err = api.svc.Update(ctx.Request().Context(), p.ID, data); err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, p)
}

// deleteMe closes the account: the profile goes, along with everything it owns, memories included.
func (api *profileApi) deleteMe(ctx echo.Context) error {
	p, err := getContextProfile(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}
	if _, err = api.svc.Delete(ctx.Request().Context(), p.ID); err != nil {
		return errors.Wrap(err, "deleting profile")
	}
	if api.memories != nil {
		api.memories.Purge(p.ID)
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
