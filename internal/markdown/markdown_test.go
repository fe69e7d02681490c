package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToHTML_Heading(t *testing.T) {
	out, err := New().ToHTML([]byte("# Hi"))
	require.NoError(t, err)
	require.Equal(t, "<h1>Hi</h1>\n", string(out))
}

func TestToHTML_KeepsTemplateTags(t *testing.T) {
	src := "<BlogLayout>\n\n## Post\n\n<Footer/>\n\n</BlogLayout>\n"
	out, err := New().ToHTML([]byte(src))
	require.NoError(t, err)

	html := strings.TrimSpace(string(out))
	require.True(t, strings.HasPrefix(html, "<BlogLayout>"), html)
	require.True(t, strings.HasSuffix(html, "</BlogLayout>"), html)
	require.Contains(t, html, "<h2>Post</h2>")
	require.Contains(t, html, "<Footer/>")
}

func TestToHTML_GFM(t *testing.T) {
	out, err := New().ToHTML([]byte("~~gone~~\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"))
	require.NoError(t, err)
	require.Contains(t, string(out), "<del>gone</del>")
	require.Contains(t, string(out), "<table>")
}
