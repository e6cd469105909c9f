package context

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRequestID(t *testing.T) {
	assert.Equal(t, "unknown", GetRequestID(context.Background()))
	assert.Equal(t, "abc", GetRequestID(WithRequestID(context.Background(), "abc")))
	assert.Equal(t, "unknown", GetRequestID(WithRequestID(context.Background(), "")))
}

func TestFromFiberCtx(t *testing.T) {
	app := fiber.New()
	app.Get("/locals", func(c *fiber.Ctx) error {
		c.Locals("X-Request-ID", "from-locals")
		return c.SendString(GetRequestID(FromFiberCtx(c)))
	})
	app.Get("/header", func(c *fiber.Ctx) error {
		return c.SendString(GetRequestID(FromFiberCtx(c)))
	})

	cases := map[string]struct {
		path   string
		header string
		want   string
	}{
		"locals win":     {"/locals", "from-header", "from-locals"},
		"header":         {"/header", "from-header", "from-header"},
		"missing header": {"/header", "", "unknown"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, nil)
			if tc.header != "" {
				req.Header.Set("X-Request-ID", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(body))
		})
	}
}
