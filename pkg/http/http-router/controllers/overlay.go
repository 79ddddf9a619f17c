package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/julienschmidt/httprouter"
	"github.com/lintang-b-s/osmlr-overlay/pkg/geo"
	helper "github.com/lintang-b-s/osmlr-overlay/pkg/http/http-router/router-helper"
	"go.uber.org/zap"
)

type overlayAPI struct {
	overlayService OverlayService
	log            *zap.Logger
	validate       *validator.Validate
	trans          ut.Translator
}

func New(overlayService OverlayService, log *zap.Logger) *overlayAPI {
	validate := validator.New()
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	return &overlayAPI{
		overlayService: overlayService,
		log:            log,
		validate:       validate,
		trans:          trans,
	}
}

func (api *overlayAPI) Routes(group *helper.RouteGroup) {
	group.POST("/region", api.showRegion)
	group.DELETE("/region", api.clearRegion)
	group.GET("/routes", api.routes)
	group.GET("/status", api.status)
	group.PUT("/hour", api.setHour)
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// regionRequest model info
//
//	@Description	request body for showing the traffic overlay of a region. A null bbox clears the overlay.
type regionRequest struct {
	BBox *geo.BoundingBox `json:"bbox" validate:"omitempty"`
}

// hourRequest model info
//
//	@Description	request body for selecting the hour of week speeds are read for.
type hourRequest struct {
	Hour *int `json:"hour" validate:"required,min=0,max=167"`
}

// showRegion godoc
// @Summary		build and publish the traffic overlay of a bounding box.
// @Description	the overlay is built in the background, poll /api/overlay/status and /api/overlay/routes for the result.
// @Tags			overlay
// @ID show-region
// @Param			body	body	regionRequest	true
// @Accept			application/json
// @Produce		application/json
// @Router			/api/overlay/region [post]
// @Success		202
// @Success		200
// @Failure		400	{object}	errorResponse
// @Failure		500	{object}	errorResponse
func (api *overlayAPI) showRegion(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request regionRequest
	err := json.NewDecoder(r.Body).Decode(&request)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	if err := api.validate.Struct(request); err != nil {
		api.BadRequestResponse(w, r, api.validationError(err))
		return
	}

	if request.BBox == nil {
		api.clearRegion(w, r, nil)
		return
	}

	if err := api.overlayService.ShowRegion(*request.BBox); err != nil {
		api.errorCodeResponse(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusAccepted, envelope{"message": "overlay build started"}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// clearRegion godoc
// @Summary		remove the published traffic overlay.
// @Tags			overlay
// @ID clear-region
// @Produce		application/json
// @Router			/api/overlay/region [delete]
// @Success		200
// @Failure		500	{object}	errorResponse
func (api *overlayAPI) clearRegion(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := api.overlayService.Clear(r.Context()); err != nil {
		api.errorCodeResponse(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"message": "overlay cleared"}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// routes godoc
// @Summary		the currently published traffic overlay.
// @Tags			overlay
// @ID routes
// @Produce		application/json
// @Router			/api/overlay/routes [get]
// @Success		200
// @Failure		404	{object}	errorResponse
// @Failure		500	{object}	errorResponse
func (api *overlayAPI) routes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	o, err := api.overlayService.Routes(r.Context())
	if err != nil {
		api.errorCodeResponse(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": o}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *overlayAPI) status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": api.overlayService.Status()}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// setHour godoc
// @Summary		select the hour of week speeds are read for.
// @Tags			overlay
// @ID set-hour
// @Param			body	body	hourRequest	true
// @Accept			application/json
// @Produce		application/json
// @Router			/api/overlay/hour [put]
// @Success		200
// @Failure		400	{object}	errorResponse
func (api *overlayAPI) setHour(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request hourRequest
	err := json.NewDecoder(r.Body).Decode(&request)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	if err := api.validate.Struct(request); err != nil {
		api.BadRequestResponse(w, r, api.validationError(err))
		return
	}

	if err := api.overlayService.SetHour(*request.Hour); err != nil {
		api.errorCodeResponse(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": api.overlayService.Status()}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}
