package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/me", NewJwtMiddleware(testSecret), func(ctx *fiber.Ctx) error {
		return ctx.JSON(SuccessResponse("ok", UserID(ctx)))
	})
	app.Get("/admin", NewJwtMiddleware(testSecret), RequireAdmin(), func(ctx *fiber.Ctx) error {
		return ctx.JSON(SuccessResponse("ok", UserID(ctx)))
	})
	app.Get("/missing", func(ctx *fiber.Ctx) error {
		return NotFound("Session not found")
	})
	app.Get("/boom", func(ctx *fiber.Ctx) error {
		return errors.New("boom")
	})
	return app
}

func decode(t *testing.T, body io.Reader) BaseResponse[any] {
	t.Helper()
	var res BaseResponse[any]
	require.NoError(t, json.NewDecoder(body).Decode(&res))
	return res
}

func TestJwtMiddleware(t *testing.T) {
	app := newTestApp()

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing", header: "", status: 401},
		{name: "garbage", header: "Bearer nope", status: 401},
		{name: "no user", header: "Bearer " + signToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}), status: 401},
		{name: "expired", header: "Bearer " + signToken(t, jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(-time.Hour).Unix()}), status: 401},
		{name: "valid", header: "Bearer " + signToken(t, jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(time.Hour).Unix()}), status: 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.status == 200 {
				assert.Equal(t, "u1", decode(t, resp.Body).Data)
			}
		})
	}
}

func TestJwtMiddleware_QueryToken(t *testing.T) {
	app := newTestApp()
	token := signToken(t, jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(time.Hour).Unix()})

	resp, err := app.Test(httptest.NewRequest("GET", "/me?token="+token, nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "u1", decode(t, resp.Body).Data)
}

func TestErrorHandler(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	body := decode(t, resp.Body)
	assert.False(t, body.Success)
	assert.Equal(t, "Session not found", body.Message)

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/nowhere", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Query string `validate:"required,max=10"`
	}
	assert.NoError(t, ValidateRequest(req{Query: "hi"}))

	err := ValidateRequest(req{})
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Code)
	assert.Contains(t, appErr.Error(), "Query failed on 'required'")
}

func TestRequireAdmin(t *testing.T) {
	app := newTestApp()
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name   string
		claims jwt.MapClaims
		status int
	}{
		{name: "no role", claims: jwt.MapClaims{"user_id": "u1", "exp": exp}, status: 403},
		{name: "member", claims: jwt.MapClaims{"user_id": "u1", "role": "member", "exp": exp}, status: 403},
		{name: "non-string role", claims: jwt.MapClaims{"user_id": "u1", "role": 1, "exp": exp}, status: 403},
		{name: "admin", claims: jwt.MapClaims{"user_id": "u1", "role": RoleAdmin, "exp": exp}, status: 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, tt.claims))
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.status == 200, decode(t, resp.Body).Success)
		})
	}
}
