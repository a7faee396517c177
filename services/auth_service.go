package services

import (
	"context"

	"github.com/Dosada05/racket-rankings/utils"
)

// RoleAdmin — единственная роль системы: администратор, загружающий и
// удаляющий турниры. Публичные чтения аутентификации не требуют.
const RoleAdmin = "admin"

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthService проверяет учётные данные администратора, заданные в
// конфигурации (email и bcrypt-хэш пароля). Пользовательской базы нет.
type AuthService interface {
	Login(ctx context.Context, input LoginInput) (role string, err error)
}

type authService struct {
	adminEmail        string
	adminPasswordHash string
}

func NewAuthService(adminEmail, adminPasswordHash string) AuthService {
	return &authService{adminEmail: adminEmail, adminPasswordHash: adminPasswordHash}
}

func (s *authService) Login(_ context.Context, input LoginInput) (string, error) {
	if s.adminEmail == "" || s.adminPasswordHash == "" {
		return "", ErrAuthInvalidCredentials
	}
	if input.Email != s.adminEmail {
		return "", ErrAuthInvalidCredentials
	}
	if !utils.CheckPasswordHash(input.Password, s.adminPasswordHash) {
		return "", ErrAuthInvalidCredentials
	}
	return RoleAdmin, nil
}
