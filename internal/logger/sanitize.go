package logger

import "strings"

// SanitizePath replaces numeric path segments (task ids) with a placeholder
// so access logs aggregate by route rather than by record.
func SanitizePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if segment != "" && isDigits(segment) {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
