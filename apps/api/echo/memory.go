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

type memoryApi struct {
	profileSvc *profile.Service
	memories   *memory.Registry
	validate   *validator.Validate
}

func registerMemoryAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := memoryApi{
		profileSvc: deps.ProfileSvc,
		memories:   deps.Memories,
		validate:   deps.Validate,
	}

	mg := g.Group("/memories", jwt)
	mg.GET("", api.list)
	mg.POST("", api.add)
	mg.DELETE("", api.clear)
	mg.PUT("/upsert", api.upsert)
	mg.GET("/lookup", api.lookup)
	mg.PUT("/:id", api.update)
	mg.DELETE("/:id", api.destroy)
}

// store returns the memories of the authenticated profile.
// A deleted profile has none, even with a token that is still valid.
func (api *memoryApi) store(ctx echo.Context) (*memory.Store, error) {
	p, err := getContextProfile(ctx, api.profileSvc)
	if err != nil {
		return nil, errors.Wrap(err, "getting context profile")
	}
	return api.memories.For(p.ID), nil
}

// Handlers

func (api *memoryApi) list(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, MemoriesResponse{
		Memories: store.Memories(),
		IsReady:  store.IsReady(),
	})
}

func (api *memoryApi) add(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}

	var data MemoryRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MemoryRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	it := store.Add(data.Key, data.Value, memory.Category(data.Category))
	return ctx.JSON(http.StatusCreated, it)
}

func (api *memoryApi) upsert(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}

	var data MemoryRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MemoryRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	it := store.Upsert(data.Key, data.Value, memory.Category(data.Category))
	return ctx.JSON(http.StatusOK, it)
}

func (api *memoryApi) lookup(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}

	it, ok := store.Lookup(ctx.QueryParam("key"))
	if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, LookupResponse{Key: it.Key, Value: it.Value})
}

// update and destroy answer 204 whether or not the id exists.
func (api *memoryApi) update(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}

	var data UpdateMemoryRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMemoryRequest")
	}

	store.Update(ctx.Param("id"), data.Value)
	return ctx.NoContent(http.StatusNoContent)
}

func (api *memoryApi) destroy(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}
	store.Delete(ctx.Param("id"))
	return ctx.NoContent(http.StatusNoContent)
}

func (api *memoryApi) clear(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}
	store.Clear()
	return ctx.NoContent(http.StatusNoContent)
}

type (
	MemoryRequest struct {
		Key      string `json:"key" validate:"required,notblank"`
		Value    string `json:"value"`
		Category string `json:"category" validate:"omitempty,oneof=professional personal preference"`
	}

	UpdateMemoryRequest struct {
		Value string `json:"value"`
	}

	MemoriesResponse struct {
		Memories []memory.Item `json:"memories"`
		IsReady  bool          `json:"is_ready"`
	}

	LookupResponse struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
)

func (mr *MemoryRequest) Validate(validate *validator.Validate) error {
	mr.Key = core.CleanString(mr.Key)
	mr.Category = core.CleanString(mr.Category, true /* lower */)
	return validate.Struct(mr)
}
