package middleware

import (
	"time"

	contextPkg "ImageTagger/pkg/context"
	"ImageTagger/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

const (
	RequestIDKey       = "X-Request-ID"
	maxRequestIDLength = 64
)

// NewRequestIDMiddleware keeps a caller supplied X-Request-ID when it is a
// short token and otherwise issues a ULID. The id is echoed in the response
// and stored in both the fiber locals and the user context.
func NewRequestIDMiddleware() fiber.Handler {
	idGenerator := utils.New()

	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDKey)

		if !validRequestID(requestID) {
			requestID, _ = idGenerator.NewULIDFromTimestamp(time.Now())
		}

		c.Locals(RequestIDKey, requestID)
		c.Set(RequestIDKey, requestID)
		c.SetUserContext(contextPkg.WithRequestID(c.UserContext(), requestID))

		return c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}
