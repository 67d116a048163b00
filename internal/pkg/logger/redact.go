package logger

import "strings"

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactHandle masks a social author handle or display name.
// "@coffeelover99" → "@co***", "coffeelover99" → "co***"
func RedactHandle(handle string) string {
	if handle == "" {
		return ""
	}
	prefix := ""
	if strings.HasPrefix(handle, "@") {
		prefix = "@"
		handle = handle[1:]
	}
	if len(handle) <= 2 {
		return prefix + "***"
	}
	return prefix + handle[:2] + "***"
}
