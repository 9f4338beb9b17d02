package util

import (
	"strings"
	"testing"
)

func TestTruncate_ShortString(t *testing.T) {
	if got := Truncate("hello", 500); got != "hello" {
		t.Errorf("Expected 'hello', got '%s'", got)
	}
}

func TestTruncate_LongString(t *testing.T) {
	long := strings.Repeat("x", 600)
	got := Truncate(long, 500)
	if len(got) != 500 {
		t.Errorf("Expected 500 bytes, got %d", len(got))
	}
}

func TestTruncate_ExactLength(t *testing.T) {
	s := strings.Repeat("y", 500)
	if got := Truncate(s, 500); got != s {
		t.Errorf("Expected unchanged string at exact limit")
	}
}
