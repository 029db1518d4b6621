package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Homecoming 2026", "Homecoming 2026"},
		{"trims", "  reunion  ", "reunion"},
		{"strips script", `hello<script>alert("x")</script>`, "hello"},
		{"strips tags keeps text", "<b>bold</b> move", "bold move"},
		{"keeps ampersand", "Tom & Jerry", "Tom & Jerry"},
		{"keeps newlines", "line one\nline two", "line one\nline two"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Text(tc.in))
		})
	}
}

func TestLines(t *testing.T) {
	got := Lines([]string{"Go", "<i></i>", "  ", "MongoDB"})
	assert.Equal(t, []string{"Go", "MongoDB"}, got)
}
