package logging

import (
	"regexp"
	"strings"
)

const redacted = "***REDACTED***"

// Redaction patterns for sensitive data in logs.
var (
	PasswordPattern = regexp.MustCompile(`(?i)(password[=:]\s*)([^\s"',}]+)`)

	TokenPattern = regexp.MustCompile(`(?i)(Bearer\s+)([A-Za-z0-9\-_.]{20,})`)

	// ConnectionStringPattern matches credentials embedded in DATABASE_URL / REDIS_URL.
	ConnectionStringPattern = regexp.MustCompile(`://[^:/@\s]+:[^@\s]+@`)

	SecretPattern = regexp.MustCompile(`(?i)([A-Z_]*SECRET[A-Z_]*[=:]\s*)([^\s"',}]+)`)

	// CredentialJSONPattern matches OAuth fields inside GA_CREDENTIALS payloads.
	CredentialJSONPattern = regexp.MustCompile(`("(?:private_key|private_key_id|client_secret|refresh_token|access_token)"\s*:\s*")([^"]*)(")`)
)

// RedactString masks sensitive values in s.
func RedactString(s string) string {
	if s == "" {
		return s
	}
	result := PasswordPattern.ReplaceAllString(s, `${1}`+redacted)
	result = TokenPattern.ReplaceAllString(result, `${1}`+redacted)
	result = ConnectionStringPattern.ReplaceAllString(result, `://`+redacted+`@`)
	result = SecretPattern.ReplaceAllString(result, `${1}`+redacted)
	result = CredentialJSONPattern.ReplaceAllString(result, `${1}`+redacted+`${3}`)
	return result
}

// RedactFields redacts sensitive values in a map of fields.
func RedactFields(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return nil
	}
	sensitiveKeys := []string{"password", "secret", "token", "key", "credential", "auth"}

	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		keyLower := strings.ToLower(k)
		sensitive := false
		for _, s := range sensitiveKeys {
			if strings.Contains(keyLower, s) {
				sensitive = true
				break
			}
		}
		if !sensitive {
			out[k] = v
			continue
		}
		if str, ok := v.(string); ok {
			out[k] = RedactString(str)
		} else {
			out[k] = redacted
		}
	}
	return out
}
