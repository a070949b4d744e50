package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Kariqs/smart-inventory/middlewares"
	"github.com/Kariqs/smart-inventory/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Standard response messages
const (
	msgInternalServerError = "An unexpected error occurred."
	msgNotFound            = "The requested resource was not found."
	msgConcurrencyConflict = "The record you attempted to edit was modified by another user after you loaded it. Reload the page and try again."
	msgCategoryInUse       = "This category still has products and cannot be deleted."
	msgForbidden           = "Admin access required"
	msgInvalidCredentials  = "Invalid login attempt."
	msgLockedOut           = "User account locked out. Try again in a few minutes."
	msgInvalidToken        = "Invalid or expired link."
	msgImagesDisabled      = "Image uploads are not configured."
	msgInvalidForm         = "One or more fields contain invalid values."
)

const flashCookie = "flash"

type flash struct {
	Kind    string
	Message string
}

func sendJSONResponse(ctx *gin.Context, status int, data gin.H) {
	ctx.JSON(status, data)
}

func sendErrorResponse(ctx *gin.Context, status int, message string) {
	sendJSONResponse(ctx, status, gin.H{"success": false, "message": message})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidToken):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConcurrencyConflict), errors.Is(err, services.ErrCategoryInUse):
		return http.StatusConflict
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrLockedOut):
		return http.StatusLocked
	case errors.Is(err, services.ErrImagesDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the text shown to clients for err. Unexpected errors are
// never echoed.
func publicMessage(err error) string {
	if msgs := services.ValidationMessages(err); msgs != nil {
		return strings.Join(msgs, ", ")
	}
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrProductNotFound):
		return msgNotFound
	case errors.Is(err, services.ErrConcurrencyConflict):
		return msgConcurrencyConflict
	case errors.Is(err, services.ErrCategoryInUse):
		return msgCategoryInUse
	case errors.Is(err, services.ErrForbidden):
		return msgForbidden
	case errors.Is(err, services.ErrInvalidCredentials):
		return msgInvalidCredentials
	case errors.Is(err, services.ErrLockedOut):
		return msgLockedOut
	case errors.Is(err, services.ErrInvalidToken):
		return msgInvalidToken
	case errors.Is(err, services.ErrImagesDisabled):
		return msgImagesDisabled
	default:
		return msgInternalServerError
	}
}

// formErrors is the list rendered above a re-displayed form.
func formErrors(err error) []string {
	if msgs := services.ValidationMessages(err); msgs != nil {
		return msgs
	}
	return []string{publicMessage(err)}
}

// isFormError reports whether err should re-display the submitted form
// rather than an error page.
func isFormError(err error) bool {
	return errors.Is(err, services.ErrValidation) || errors.Is(err, services.ErrConcurrencyConflict)
}

func invalidForm(err error) error {
	return &services.ValidationError{Messages: []string{msgInvalidForm}, Causes: []error{err}}
}

// Common error response helper
func respondWithError(ctx *gin.Context, logger zerolog.Logger, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", ctx.Request.URL.Path).Msg("request failed")
	}

	if middlewares.IsAjax(ctx) {
		body := gin.H{"success": false, "message": publicMessage(err)}
		if msgs := services.ValidationMessages(err); msgs != nil {
			body["errors"] = msgs
		}
		sendJSONResponse(ctx, status, body)
		return
	}

	switch status {
	case http.StatusForbidden:
		ctx.Redirect(http.StatusFound, "/Account/AccessDenied")
	case http.StatusNotFound, http.StatusInternalServerError:
		renderErrorPage(ctx, status)
	default:
		render(ctx, status, "error.html", gin.H{
			"Title":   "Error",
			"Code":    status,
			"Message": publicMessage(err),
		})
	}
}

func renderErrorPage(ctx *gin.Context, status int) {
	message := msgInternalServerError
	if status == http.StatusNotFound {
		message = msgNotFound
	}
	render(ctx, status, "error.html", gin.H{
		"Title":   "Error",
		"Code":    status,
		"Message": message,
	})
}

func render(ctx *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["User"] = middlewares.CurrentPrincipal(ctx)
	if f := takeFlash(ctx); f != nil {
		data["Flash"] = f
	}
	ctx.HTML(status, name, data)
}

func setFlash(ctx *gin.Context, kind, message string) {
	ctx.SetCookie(flashCookie, kind+"|"+message, 60, "/", "", false, true)
}

func takeFlash(ctx *gin.Context) *flash {
	value, err := ctx.Cookie(flashCookie)
	if err != nil || value == "" {
		return nil
	}
	ctx.SetCookie(flashCookie, "", -1, "/", "", false, true)

	kind, message, ok := strings.Cut(value, "|")
	if !ok {
		return nil
	}
	return &flash{Kind: kind, Message: message}
}

func redirectWithFlash(ctx *gin.Context, location, kind, message string) {
	setFlash(ctx, kind, message)
	ctx.Redirect(http.StatusFound, location)
}

func parseID(ctx *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, services.ErrNotFound
	}
	return uint(id), nil
}
