package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("collector@example.com"))
	assert.True(t, ValidateEmail("  Collector@Example.COM "))
	assert.False(t, ValidateEmail("collector@"))
	assert.False(t, ValidateEmail(""))
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "hello", StripHTML("<b>hello</b>"))
	assert.Equal(t, "", StripHTML("<script>alert(1)</script>"))
	assert.Equal(t, "plain text", StripHTML("  plain text\x00 "))
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Blue Horse, 2020!":  "blue-horse-2020",
		"  --Nomophobia--  ": "nomophobia",
		"Mug / Dish / Glass": "mug-dish-glass",
		"":                   "",
		"Ünïcode Only":       "n-code-only",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slug(in), in)
	}
}
