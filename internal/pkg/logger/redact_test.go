package logger

import "testing"

func TestRedactEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"john.doe@example.com", "jo***@example.com"},
		{"ab@example.com", "***@example.com"},
		{"not-an-email", "***@***"},
	}
	for _, tt := range tests {
		if got := RedactEmail(tt.in); got != tt.want {
			t.Errorf("RedactEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRedactHandle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"@coffeelover99", "@co***"},
		{"coffeelover99", "co***"},
		{"@ab", "@***"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := RedactHandle(tt.in); got != tt.want {
			t.Errorf("RedactHandle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
