// redact маскирует чувствительные значения перед записью в логи.
package redact

import "strings"

// Email оставляет два первых символа локальной части и домен.
func Email(s string) string {
	local, domain, ok := strings.Cut(s, "@")
	if !ok || domain == "" || strings.Contains(domain, "@") {
		return "***"
	}

	if len(local) > 2 {
		local = local[:2] + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Bearer заменяет значение Authorization, сохраняя схему.
func Bearer(header string) string {
	if header == "" {
		return ""
	}

	if scheme, _, ok := strings.Cut(header, " "); ok {
		return scheme + " " + Token()
	}

	return Token()
}

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }
