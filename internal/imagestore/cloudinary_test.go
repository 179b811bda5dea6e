package imagestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"versioned", "https://res.cloudinary.com/demo/image/upload/v1712345/curate/lamp.jpg", "curate/lamp"},
		{"no version", "https://res.cloudinary.com/demo/image/upload/curate/lamp.png", "curate/lamp"},
		{"transformed", "https://res.cloudinary.com/demo/image/upload/c_fill,w_300/v99/curate/rugs/jute.webp", "curate/rugs/jute"},
		{"no extension", "https://res.cloudinary.com/demo/image/upload/v1/lamp", "lamp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PublicIDFromURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPublicIDFromURL_Invalid(t *testing.T) {
	for _, in := range []string{
		"https://example.com/images/lamp.jpg",
		"https://res.cloudinary.com/demo/image/upload/",
		"https://res.cloudinary.com/demo/image/upload/v12",
		"://bad",
	} {
		_, err := PublicIDFromURL(in)
		assert.Error(t, err, in)
	}
}
