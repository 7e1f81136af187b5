package logging

import (
	"regexp"
	"strings"
)

// sensitiveFields contains field names that should be masked in logs.
var sensitiveFields = map[string]bool{
	"password":              true,
	"password_confirmation": true,
	"current_password":      true,
	"new_password":          true,
	"token":                 true,
	"csrf":                  true,
	"xsrf-token":            true,
	"x-xsrf-token":          true,
	"session":               true,
	"cookie":                true,
	"set-cookie":            true,
	"authorization":         true,
}

var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(password|token|xsrf[_-]?token|csrf[_-]?token|session|cookie)[=:]\s*["']?([^\s"'&;,]+)["']?`),
}

// MaskCredential keeps a short prefix and suffix of long values and stars out
// the rest.
func MaskCredential(value string) string {
	if len(value) == 0 {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	if len(value) <= 8 {
		return value[:2] + strings.Repeat("*", len(value)-2)
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

// Redact masks sensitive key=value and key: value pairs inside s.
func Redact(s string) string {
	result := s
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			sub := pattern.FindStringSubmatch(match)
			if len(sub) < 3 {
				return MaskCredential(match)
			}
			i := strings.LastIndex(match, sub[2])
			return match[:i] + MaskCredential(sub[2]) + match[i+len(sub[2]):]
		})
	}
	return result
}

// RedactFields returns a copy of data with sensitive keys masked.
func RedactFields(data map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(data))
	for k, v := range data {
		if sensitiveFields[strings.ToLower(k)] {
			if strVal, ok := v.(string); ok {
				result[k] = MaskCredential(strVal)
			} else {
				result[k] = "***"
			}
		} else if strVal, ok := v.(string); ok {
			result[k] = Redact(strVal)
		} else {
			result[k] = v
		}
	}
	return result
}
