// validation: локальные проверки форм входа и регистрации.
// Всё, что отклонено здесь, до сети не доходит.
package validation

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	apierrors "github.com/pribylovaa/dental-clinic/internal/errors"
	"github.com/pribylovaa/dental-clinic/internal/models"
)

// MinPasswordLen: минимальная длина пароля в символах.
const MinPasswordLen = 8

// PasswordSymbols: допустимые спецсимволы, хотя бы один обязателен.
const PasswordSymbols = "@$!%*?&"

// RegisterForm: поля формы регистрации.
type RegisterForm struct {
	Nombre          string
	Email           string
	Password        string
	ConfirmPassword string
	// Role пустая означает роль по умолчанию (SECRETARIA).
	Role models.Role
}

// Validate проверяет форму в порядке полей и возвращает первую ошибку.
func (f RegisterForm) Validate() error {
	if strings.TrimSpace(f.Nombre) == "" {
		return apierrors.Invalid("nombre", "name is required")
	}

	if _, err := Email(f.Email); err != nil {
		return err
	}

	if err := Password(f.Password); err != nil {
		return err
	}

	if f.Password != f.ConfirmPassword {
		return apierrors.Invalid("confirmPassword", "passwords do not match")
	}

	if f.Role != "" && !f.Role.Valid() {
		return apierrors.Invalid("role", "unknown role")
	}

	return nil
}

// Request собирает тело /auth/register. Вызывать после Validate.
func (f RegisterForm) Request() models.RegisterRequest {
	role := f.Role
	if role == "" {
		role = models.RoleSecretaria
	}

	return models.RegisterRequest{
		Nombre:   strings.TrimSpace(f.Nombre),
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
		Role:     role,
	}
}

// Login: оба поля обязательны, формат email не проверяется.
func Login(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return apierrors.Invalid("email", "email is required")
	}

	if password == "" {
		return apierrors.Invalid("password", "password is required")
	}

	return nil
}

// Email возвращает адрес без пробелов по краям.
func Email(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", apierrors.Invalid("email", "email is required")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apierrors.Invalid("email", "invalid email")
	}

	return email, nil
}

// Password: длина не меньше MinPasswordLen, строчная, заглавная, цифра
// и символ из PasswordSymbols. Классы букв и цифр только ASCII:
// Ñ или арабская цифра требование не закрывают.
func Password(pw string) error {
	if utf8.RuneCountInString(pw) < MinPasswordLen {
		return apierrors.Invalid("password", "password must be at least 8 characters")
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range pw {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		case strings.ContainsRune(PasswordSymbols, r):
			hasSymbol = true
		}
	}

	if !hasLower || !hasUpper || !hasDigit || !hasSymbol {
		return apierrors.Invalid("password",
			"password must contain a lowercase letter, an uppercase letter, a digit and one of "+PasswordSymbols)
	}

	return nil
}
