// Package auth registro de usuarios y emisión de tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Rentabilidad-api/internal/application/dto"
	"github.com/jhoicas/Rentabilidad-api/internal/domain"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Rentabilidad-api/internal/domain/repository"
	"github.com/jhoicas/Rentabilidad-api/pkg/jwt"
)

const minPasswordLen = 8

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de autenticación: registro y login.
type AuthUseCase struct {
	userRepo   repository.UserRepository
	sellerRepo repository.SellerRepository
	jwtCfg     JWTConfig
	log        zerolog.Logger
	now        func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, sellerRepo repository.SellerRepository, jwtCfg JWTConfig, log zerolog.Logger) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, sellerRepo: sellerRepo, jwtCfg: jwtCfg, log: log, now: time.Now}
}

// RegisterUser crea un usuario con password bcrypt. Si la cuenta de vendedor no existe la crea
// sin valores por defecto propios (el resolver usará los del sistema).
// Devuelve domain.ErrDuplicate si el email ya está registrado.
func (uc *AuthUseCase) RegisterUser(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, &domain.ValidationError{Field: "email", Reason: "formato inválido"}
	}
	if len(in.Password) < minPasswordLen {
		return nil, &domain.ValidationError{Field: "password", Reason: fmt.Sprintf("debe tener al menos %d caracteres", minPasswordLen)}
	}
	role := in.Role
	if role == "" {
		role = entity.RoleSeller
	}
	switch role {
	case entity.RoleAdmin, entity.RoleSeller, entity.RoleService:
	default:
		return nil, &domain.ValidationError{Field: "role", Reason: "debe ser admin, seller o service"}
	}
	if role != entity.RoleAdmin && in.SellerID == "" {
		return nil, &domain.ValidationError{Field: "seller_id", Reason: "requerido para el rol " + role}
	}

	if in.SellerID != "" {
		if err := uc.ensureSeller(ctx, in.SellerID, in.ShopName); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := uc.now().UTC()
	name := in.Name
	if name == "" {
		name = email
	}
	user := &entity.User{
		ID:           uuid.New().String(),
		SellerID:     in.SellerID,
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		Status:       entity.UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.log.Info().Str("user_id", user.ID).Str("seller_id", user.SellerID).Str("role", role).Msg("usuario registrado")
	return toUserResponse(user), nil
}

// Login verifica email/password y emite un JWT con seller_id y role.
// Email desconocido y password incorrecto devuelven el mismo domain.ErrInvalidCredentials.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, fmt.Errorf("usuario %s inactivo: %w", user.ID, domain.ErrUnauthorized)
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.SellerID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, fmt.Errorf("generar token: %w", err)
	}
	return &dto.LoginResponse{Token: token, User: *toUserResponse(user)}, nil
}

// EnsureAdmin crea el administrador inicial si el email todavía no existe.
func (uc *AuthUseCase) EnsureAdmin(ctx context.Context, email, password string) error {
	_, err := uc.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	_, err = uc.RegisterUser(ctx, dto.RegisterRequest{Email: email, Password: password, Role: entity.RoleAdmin})
	if errors.Is(err, domain.ErrDuplicate) {
		return nil
	}
	return err
}

func (uc *AuthUseCase) ensureSeller(ctx context.Context, sellerID, shopName string) error {
	_, err := uc.sellerRepo.GetByID(ctx, sellerID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("leer vendedor: %w", err)
	}
	if shopName == "" {
		shopName = sellerID
	}
	if err := uc.sellerRepo.Save(ctx, &entity.SellerAccount{ID: sellerID, ShopName: shopName, Active: true}); err != nil {
		return fmt.Errorf("crear vendedor: %w", err)
	}
	return nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        u.ID,
		SellerID:  u.SellerID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
