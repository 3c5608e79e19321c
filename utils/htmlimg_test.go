package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractImageKeys(t *testing.T) {
	prefix := "/static/post-images"

	tests := []struct {
		name string
		html string
		want []string
	}{
		{
			name: "single image",
			html: `<p>hi</p><img src="/static/post-images/public/posts/1_ab.png">`,
			want: []string{"public/posts/1_ab.png"},
		},
		{
			name: "document order without duplicates",
			html: `<img src="/static/post-images/public/posts/b.png"><img src="/static/post-images/public/posts/a.png"><img src="/static/post-images/public/posts/b.png">`,
			want: []string{"public/posts/b.png", "public/posts/a.png"},
		},
		{
			name: "query string stripped",
			html: `<img src="/static/post-images/public/posts/c.png?v=3">`,
			want: []string{"public/posts/c.png"},
		},
		{
			name: "foreign sources ignored",
			html: `<img src="https://elsewhere.example.com/pic.png"><img src="/static/baro-studio/public/attachments/x.pdf">`,
			want: nil,
		},
		{
			name: "single quoted src",
			html: `<img alt='x' src='/static/post-images/public/posts/d.png'>`,
			want: []string{"public/posts/d.png"},
		},
		{
			name: "empty html",
			html: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ExtractImageKeys(tt.html, prefix))
		})
	}
}

func TestExtractImageKeysEmptyPrefix(t *testing.T) {
	require.Nil(t, ExtractImageKeys(`<img src="/static/post-images/public/posts/a.png">`, ""))
}

func TestExtractImageKeysPrefixTrailingSlash(t *testing.T) {
	got := ExtractImageKeys(`<img src="/static/post-images/public/posts/a.png">`, "/static/post-images/")
	require.Equal(t, []string{"public/posts/a.png"}, got)
}
