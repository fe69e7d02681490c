package tags

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLiteral_MatchLayout(t *testing.T) {
	m := Literal{}
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"exact", "<BlogLayout><p>x</p></BlogLayout>", true},
		{"surrounding whitespace", "\n  <BlogLayout>\n<p>x</p>\n</BlogLayout>\n\n", true},
		{"missing close", "<BlogLayout><p>x</p>", false},
		{"missing open", "<p>x</p></BlogLayout>", false},
		{"other layout", "<DocsLayout>x</DocsLayout>", false},
		{"not bounding", "<p>a</p><BlogLayout>x</BlogLayout>", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, m.MatchLayout(tc.text, "BlogLayout"))
		})
	}
}

func TestLiteral_WrapStripsAllLayoutTags(t *testing.T) {
	layout := "<BlogLayout><html><body><slot></slot></body></html></BlogLayout>"
	page := "<BlogLayout><h1>Post</h1></BlogLayout>"

	out := Literal{}.Wrap(layout, page, "BlogLayout")

	require.Equal(t, "<html><body><h1>Post</h1></body></html>", out)
	require.NotContains(t, out, "<BlogLayout>")
	require.NotContains(t, out, "</BlogLayout>")
}

func TestLiteral_WrapReplacesFirstSlotOnly(t *testing.T) {
	out := Literal{}.Wrap("<main><slot></slot></main><aside><slot></slot></aside>", "X", "DefaultLayout")
	require.Equal(t, "<main>X</main><aside><slot></slot></aside>", out)
}

func TestLiteral_ReplaceSnippetsAllSpellings(t *testing.T) {
	text := "<Foo/> a <Foo /> b <Foo></Foo> c <Foo/>"
	out, used := Literal{}.ReplaceSnippets(text, []Snippet{{Name: "Foo", Content: "<i>f</i>"}})

	require.Equal(t, []string{"Foo"}, used)
	require.Equal(t, 4, strings.Count(out, "<i>f</i>"))
	for _, tag := range Spellings("Foo") {
		require.NotContains(t, out, tag)
	}
}

func TestLiteral_ReplaceSnippetsIsNotRecursive(t *testing.T) {
	snippets := []Snippet{
		{Name: "Outer", Content: "[<Inner/>]"},
		{Name: "Inner", Content: "inner"},
	}
	out, used := Literal{}.ReplaceSnippets("<Outer/>", snippets)

	require.Equal(t, "[<Inner/>]", out)
	require.Equal(t, []string{"Outer"}, used)
}

func TestLiteral_ReplaceSnippetsUnused(t *testing.T) {
	text := "<p>nothing here</p>"
	out, used := Literal{}.ReplaceSnippets(text, []Snippet{{Name: "Footer", Content: "f"}})
	require.Equal(t, text, out)
	require.Empty(t, used)
}
