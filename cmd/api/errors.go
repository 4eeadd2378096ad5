package main

import (
	"net/http"
	"time"
)

// Stable machine-readable error codes exposed to clients. Messages may
// change; codes may not.
const (
	codeEmailAlreadyExists  = "EMAIL_ALREADY_EXISTS"
	codeInvalidPassword     = "INVALID_PASSWORD"
	codeUserNotFound        = "USER_NOT_FOUND"
	codeInvalidToken        = "INVALID_TOKEN"
	codeFieldNotFound       = "FIELD_NOT_FOUND"
	codeReviewNotFound      = "REVIEW_NOT_FOUND"
	codeCommentNotFound     = "COMMENT_NOT_FOUND"
	codeInvalidCommentDepth = "INVALID_COMMENT_DEPTH"
	codeForbidden           = "FORBIDDEN"
	codeInvalidInput        = "INVALID_INPUT"
	codeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	codeInternalServerError = "INTERNAL_SERVER_ERROR"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	// Internal detail stays in the logs, never in the response.
	writeJSONError(w, http.StatusInternalServerError, codeInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, code string, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, code, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, code string, err error) {
	app.logger.Warnw("not found", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, code, err.Error())
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, code string, err error) {
	app.logger.Warnw("unauthorized", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, code, err.Error())
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
	writeJSONError(w, http.StatusUnauthorized, codeInvalidToken, "unauthorized")
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("forbidden", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusForbidden, codeForbidden, err.Error())
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	w.Header().Set("Retry-After", retryAfter.String())
	writeJSONError(w, http.StatusTooManyRequests, codeRateLimitExceeded, "rate limit exceeded, retry after: "+retryAfter.String())
}
