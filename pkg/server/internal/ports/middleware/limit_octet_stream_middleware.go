package middleware

import (
	"fmt"

	"github.com/4chain-ag/go-seal-services/pkg/server/internal/app"
	"github.com/gofiber/fiber/v2"
)

// ReadBodyLimit64MB is the default maximum size of an octet-stream body.
const ReadBodyLimit64MB = 64 * 1024 * 1024

// LimitOctetStreamBodyMiddleware rejects requests with the Content-Type
// application/octet-stream whose body is empty or larger than limit.
func LimitOctetStreamBodyMiddleware(limit int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !c.Is(fiber.MIMEOctetStream) {
			return c.Next()
		}

		size := int64(len(c.Body()))
		switch {
		case size == 0:
			return NewEmptyRequestBodyError()
		case size > limit:
			return NewBodySizeLimitExceededError(limit)
		}
		return c.Next()
	}
}

// NewBodySizeLimitExceededError returns an error indicating that the request body exceeds the allowed maximum size.
func NewBodySizeLimitExceededError(limit int64) app.Error {
	msg := fmt.Sprintf("The submitted octet-stream exceeds the maximum allowed size: %d bytes.", limit)
	return app.NewIncorrectInputError(msg, msg)
}

// NewEmptyRequestBodyError returns an error indicating that the request body is empty, which is not allowed.
func NewEmptyRequestBodyError() app.Error {
	const msg = "Unable to process request with content type octet-stream. The request body is empty."
	return app.NewIncorrectInputError(msg, msg)
}
