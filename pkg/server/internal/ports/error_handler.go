package ports

import (
	"errors"

	"github.com/4chain-ag/go-seal-services/pkg/server/internal/app"
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}

// ErrorHandler returns a Fiber error handler that translates application-level errors
// into appropriate HTTP status codes and JSON responses. The response carries
// the slug of the error; unrecognized errors become a generic internal server
// error response.
func ErrorHandler() fiber.ErrorHandler {
	codes := map[app.ErrorType]int{
		app.ErrorTypeAuthorization:     fiber.StatusUnauthorized,
		app.ErrorTypeAccessForbidden:   fiber.StatusForbidden,
		app.ErrorTypeIncorrectInput:    fiber.StatusBadRequest,
		app.ErrorTypeNotFound:          fiber.StatusNotFound,
		app.ErrorTypeConflict:          fiber.StatusConflict,
		app.ErrorTypeOperationTimeout:  fiber.StatusRequestTimeout,
		app.ErrorTypeProviderFailure:   fiber.StatusInternalServerError,
		app.ErrorTypeRawDataProcessing: fiber.StatusInternalServerError,
		app.ErrorTypeUnknown:           fiber.StatusInternalServerError,
	}

	return func(c *fiber.Ctx, err error) error {
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(ErrorResponse{Message: fiberErr.Message})
		}

		var appErr app.Error
		if !errors.As(err, &appErr) || appErr.IsZero() {
			return c.Status(fiber.StatusInternalServerError).JSON(NewUnhandledErrorTypeResponse())
		}

		code, ok := codes[appErr.ErrorType()]
		if !ok {
			code = fiber.StatusInternalServerError
		}
		return c.Status(code).JSON(ErrorResponse{Message: appErr.Slug()})
	}
}

// NewUnhandledErrorTypeResponse is the default response returned when an error occurs
// that does not match any known or handled ErrorType.
func NewUnhandledErrorTypeResponse() ErrorResponse {
	return ErrorResponse{
		Message: "An internal error occurred during processing the request. Please try again later or contact the support team.",
	}
}

// NewRequestBodyParserError wraps a body parsing failure into a user-friendly application error,
// indicating that the input was malformed or invalid.
func NewRequestBodyParserError(err error) app.Error {
	return app.NewIncorrectInputError(
		err.Error(),
		"Unable to process request with given request body. Please verify the request content and try again later.",
	)
}
