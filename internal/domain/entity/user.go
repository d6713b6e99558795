package entity

import "time"

// Roles válidos para User. Coinciden con el claim role del JWT.
const (
	RoleAdmin   = "admin"
	RoleSeller  = "seller"
	RoleService = "service" // colaborador de ingesta
)

// Estados de User.
const (
	UserActive   = "active"
	UserInactive = "inactive"
)

// User usuario con acceso a la API. Salvo admin, pertenece a una SellerAccount.
type User struct {
	ID           string
	SellerID     string // vacío solo para admin
	Email        string
	PasswordHash string // bcrypt
	Name         string
	Role         string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive true si el usuario puede iniciar sesión.
func (u *User) IsActive() bool { return u.Status == UserActive }
