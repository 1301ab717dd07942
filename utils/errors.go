package utils

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

// Sentinel errors for the service layer. Services wrap these with
// fmt.Errorf("%w: ...") and the route boundary maps them to status codes
// via HandleError, so cause detail stays in the logs instead of being
// collapsed into a generic 500.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrUpstream     = errors.New("upstream failure")
)

// HandleError maps a service error to an HTTP response.
func HandleError(ctx iris.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		CreateError(iris.StatusNotFound, "Not Found", err.Error(), ctx)
	case errors.Is(err, ErrUnauthorized):
		CreateError(iris.StatusUnauthorized, "Unauthorized", err.Error(), ctx)
	case errors.Is(err, ErrValidation):
		CreateError(iris.StatusBadRequest, "Validation Error", err.Error(), ctx)
	case errors.Is(err, ErrConflict):
		CreateError(iris.StatusConflict, "Conflict", err.Error(), ctx)
	case errors.Is(err, ErrUpstream):
		CreateError(iris.StatusBadGateway, "Upstream Error", "An external service failed.", ctx)
		log.Printf("upstream error: %v", err)
	default:
		log.Printf("internal error: %v", err)
		CreateInternalServerError(ctx)
	}
}

func CreateError(statusCode int, title string, detail string, ctx iris.Context) {
	ctx.StopWithJSON(statusCode, iris.Map{"error": title, "message": detail})
}

func CreateNotFound(ctx iris.Context) {
	CreateError(iris.StatusNotFound, "Not Found", "Resource not found.", ctx)
}

func CreateInternalServerError(ctx iris.Context) {
	CreateError(iris.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred.", ctx)
}

func CreateEmailAlreadyRegistered(ctx iris.Context) {
	CreateError(iris.StatusConflict, "Registration Error", "Email already registered.", ctx)
}

// HandleValidationErrors turns validator failures into a 400 with a
// per-field error list; any other read error becomes a generic 400.
func HandleValidationErrors(err error, ctx iris.Context) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]iris.Map, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			fields = append(fields, iris.Map{
				"field": fieldErr.Field(),
				"tag":   fieldErr.Tag(),
				"value": fmt.Sprintf("%v", fieldErr.Value()),
			})
		}
		ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{
			"error":   "Validation Error",
			"message": "One or more fields failed validation.",
			"fields":  fields,
		})
		return
	}

	CreateError(iris.StatusBadRequest, "Bad Request", "Malformed request body.", ctx)
}
