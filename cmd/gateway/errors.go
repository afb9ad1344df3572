package main

import (
	"errors"
	"net/http"

	"github.com/yyvfuruta/employees/internal/models"
	"github.com/yyvfuruta/employees/internal/validator"
)

func (app *application) logError(r *http.Request, err error) {
	app.logger.Error(err.Error(), "method", r.Method, "path", r.URL.Path)
}

// errorResponse is a generic helper for sending JSON-formatted error messages
// to the client with a given status code.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	env := envelope{"status": "error", "message": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	app.errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func (app *application) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

func (app *application) failedValidation(w http.ResponseWriter, r *http.Request, errs map[string]string) {
	env := envelope{"status": "error", "message": "failed validation", "errors": errs}
	if err := writeJSON(w, http.StatusBadRequest, env, nil); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	app.errorResponse(w, r, http.StatusUnauthorized, message)
}

func (app *application) unavailable(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	app.errorResponse(w, r, http.StatusServiceUnavailable, "the service is not ready")
}

// writeError picks the response for an error returned by the employee service.
func (app *application) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validator.Error
	switch {
	case errors.As(err, &verr):
		app.failedValidation(w, r, verr.Errors)
	case errors.Is(err, models.ErrRecordNotFound):
		app.notFound(w, r)
	default:
		app.serverError(w, r, err)
	}
}
