package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Rentabilidad-api/internal/application/dto"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Rentabilidad-api/pkg/jwt"
)

// Locals keys para UserID, SellerID y Role en Fiber.
const (
	LocalUserID   = "user_id"
	LocalSellerID = "seller_id"
	LocalRole     = "role"
)

// HeaderSellerID permite a un admin operar sobre la cuenta de un vendedor.
const HeaderSellerID = "X-Seller-ID"

// AuthMiddleware valida el Bearer Token JWT y deja UserID, SellerID y Role en c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		sellerID := claims.SellerID
		if claims.Role == RoleAdmin {
			if h := strings.TrimSpace(c.Get(HeaderSellerID)); h != "" {
				sellerID = h
			}
		}
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalSellerID, sellerID)
		c.Locals(LocalRole, claims.Role)
		return c.Next()
	}
}

// Roles reconocidos en el token.
const (
	RoleAdmin   = entity.RoleAdmin
	RoleSeller  = entity.RoleSeller
	RoleService = entity.RoleService
)

// RequireRole deja pasar solo a los roles indicados. Debe ir después de AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso para esta operación"})
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	return localString(c, LocalUserID)
}

// GetSellerID devuelve la cuenta de vendedor sobre la que opera la petición.
func GetSellerID(c *fiber.Ctx) string {
	return localString(c, LocalSellerID)
}

// GetRole devuelve el rol del token.
func GetRole(c *fiber.Ctx) string {
	return localString(c, LocalRole)
}

func localString(c *fiber.Ctx, key string) string {
	s, _ := c.Locals(key).(string)
	return s
}

// requireSeller corta con 401 si la petición no quedó asociada a un vendedor.
func requireSeller(c *fiber.Ctx) (string, bool) {
	sellerID := GetSellerID(c)
	if sellerID == "" {
		_ = c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "seller_id no encontrado en el token"})
		return "", false
	}
	return sellerID, true
}
