package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/lintang-b-s/osmlr-overlay/pkg"
	"go.uber.org/zap"
)

type envelope map[string]interface{}

// writeJSON marshals data structure to encoded JSON response.
func (api *overlayAPI) writeJSON(w http.ResponseWriter, status int, data envelope,
	headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}

	js = append(js, '\n')
	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(js); err != nil {
		api.log.Error("failed to write JSON response", zap.Error(err))
		return err
	}

	return nil
}

func (api *overlayAPI) logError(r *http.Request, err error) {
	api.log.Error("request failed",
		zap.String("method", r.Method),
		zap.String("uri", r.URL.RequestURI()),
		zap.Error(err))
}

func (api *overlayAPI) errorResponse(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	var res errorResponse
	res.Error.Code = code
	res.Error.Message = message

	if err := api.writeJSON(w, status, envelope{"error": res.Error}, nil); err != nil {
		api.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (api *overlayAPI) ServerErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.logError(r, err)
	api.errorResponse(w, r, http.StatusInternalServerError, "internal_error", pkg.MessageInternalServerError)
}

func (api *overlayAPI) BadRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.errorResponse(w, r, http.StatusBadRequest, "bad_request", err.Error())
}

func (api *overlayAPI) NotFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.errorResponse(w, r, http.StatusNotFound, "not_found", err.Error())
}

func (api *overlayAPI) ServiceUnavailableResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.logError(r, err)
	w.Header().Set("Retry-After", "1")
	api.errorResponse(w, r, http.StatusServiceUnavailable, "unavailable", err.Error())
}

// errorCodeResponse maps the code carried by err to a status.
func (api *overlayAPI) errorCodeResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch pkg.ErrorCode(err) {
	case pkg.ErrBadParamInput:
		api.BadRequestResponse(w, r, err)
	case pkg.ErrNotFound:
		api.NotFoundResponse(w, r, err)
	case pkg.ErrServiceUnavailable:
		api.ServiceUnavailableResponse(w, r, err)
	default:
		api.ServerErrorResponse(w, r, err)
	}
}

// validationError joins the translated messages of a validator error.
func (api *overlayAPI) validationError(err error) error {
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return err
	}
	messages := make([]string, 0, len(validatorErrs))
	for _, e := range validatorErrs {
		messages = append(messages, e.Translate(api.trans))
	}
	return fmt.Errorf("validation error: %v", messages)
}
