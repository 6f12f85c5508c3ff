// models: JSON-модели REST API клиники (бэкенд на Prisma, поля в camelCase).
package models

// Role: роль пользователя клиники.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleOdontologo Role = "ODONTOLOGO"
	RoleSecretaria Role = "SECRETARIA"
)

// Valid сообщает, входит ли роль в известный набор.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOdontologo, RoleSecretaria:
		return true
	}

	return false
}

// UserProfile: кэшируемый профиль пользователя. Только для отображения,
// доказательством аутентификации не является.
type UserProfile struct {
	ID        int    `json:"id"`
	Nombre    string `json:"nombre"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	CreatedAt string `json:"createdAt"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// AuthResponse: ответ /auth/login и /auth/register.
// refresh_token бэкенд кладёт в HttpOnly cookie, в теле он не нужен.
type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	User        UserProfile `json:"user"`
}

// RefreshResponse: ответ /auth/refresh.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}
