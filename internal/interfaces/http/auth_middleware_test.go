package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/Rentabilidad-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Rentabilidad-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testSellerID  = "S-1"
	testIssuer    = "rentabilidad-api-test"
	testExpMin    = 60
)

// buildRoleApp aplicación mínima: AuthMiddleware + RequireRole + handler que devuelve los locals.
func buildRoleApp(allowedRoles ...string) *fiber.App {
	app := fiber.New()
	app.Get("/protected",
		apphttp.AuthMiddleware(testJWTSecret),
		apphttp.RequireRole(allowedRoles...),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"user_id":   apphttp.GetUserID(c),
				"seller_id": apphttp.GetSellerID(c),
				"role":      apphttp.GetRole(c),
			})
		},
	)
	return app
}

func bearer(t *testing.T, sellerID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, sellerID, role, testIssuer, testExpMin)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok
}

func get(t *testing.T, app *fiber.App, path, auth string, headers ...string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestAuthMiddleware_ExtraeClaims(t *testing.T) {
	app := buildRoleApp("seller")
	resp := get(t, app, "/protected", bearer(t, testSellerID, "seller"))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, testSellerID, body["seller_id"])
	assert.Equal(t, "seller", body["role"])
}

func TestAuthMiddleware_AdminPuedeElegirVendedor(t *testing.T) {
	app := buildRoleApp("admin")
	resp := get(t, app, "/protected", bearer(t, "", "admin"), apphttp.HeaderSellerID, "S-9")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "S-9", body["seller_id"])
}

func TestAuthMiddleware_VendedorNoPuedeSuplantar(t *testing.T) {
	app := buildRoleApp("seller")
	resp := get(t, app, "/protected", bearer(t, testSellerID, "seller"), apphttp.HeaderSellerID, "S-9")
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testSellerID, body["seller_id"], "el header solo aplica a admin")
}

func TestRequireRole_RolNoPermitido_Retorna403(t *testing.T) {
	app := buildRoleApp("admin", "seller")
	resp := get(t, app, "/protected", bearer(t, testSellerID, "service"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "FORBIDDEN")
}

func TestRequireRole_TokenSinRol_Retorna401(t *testing.T) {
	app := buildRoleApp("seller")
	resp := get(t, app, "/protected", bearer(t, testSellerID, ""))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "MISSING_ROLE")
}

func TestAuthMiddleware_SinHeaderOTokenInvalido_Retorna401(t *testing.T) {
	app := buildRoleApp("seller")

	resp := get(t, app, "/protected", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = get(t, app, "/protected", "Bearer token.invalido.aqui")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = get(t, app, "/protected", "Basic abc")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
