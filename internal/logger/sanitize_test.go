package logger

import "testing"

func TestSanitizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/tasks", "/api/v1/tasks"},
		{"/api/v1/tasks/42", "/api/v1/tasks/:id"},
		{"/api/v1/tasks/42/toggle", "/api/v1/tasks/:id/toggle"},
		{"/api/v1/tasks/42/advance", "/api/v1/tasks/:id/advance"},
		{"/healthz", "/healthz"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizePath(tt.path); got != tt.want {
			t.Errorf("SanitizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
