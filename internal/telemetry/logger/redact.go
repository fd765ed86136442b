package logger

import (
	"log/slog"
	"strings"
)

// Key fragments whose values are never logged in clear.
var sensitiveKeyPatterns = []string{
	"passphrase",
	"password",
	"secret",
	"key",
	"credential",
	"salt",
}

// Keys that contain a sensitive fragment but carry no secret.
var safeKeys = map[string]bool{
	"key_count": true,
	"skipped_keys": true,
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive masks attribute values whose key names a secret.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	if !IsSensitiveKey(a.Key) {
		return a
	}
	switch a.Value.Kind() {
	case slog.KindString:
		if a.Value.String() == "" {
			return a
		}
		return slog.String(a.Key, redactedValue)
	case slog.KindAny:
		if b, ok := a.Value.Any().([]byte); ok && len(b) > 0 {
			return slog.String(a.Key, redactedValue)
		}
	}
	return a
}

// RedactString masks a secret for inclusion in free-form text, keeping
// only its length.
func RedactString(value string) string {
	if value == "" {
		return ""
	}
	return redactedValue + "(" + strings.Repeat("*", min(len(value), 8)) + ")"
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	if safeKeys[keyLower] {
		return false
	}
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
