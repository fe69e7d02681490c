// Package tags implements the literal tag syntax used by layouts and
// snippets.
//
// A page opts into a layout by bounding its whole text with <NameLayout> and
// </NameLayout>. A layout marks where the page goes with <slot></slot>. A
// snippet is inserted wherever <Name></Name>, <Name/> or <Name /> appears.
//
// Matching works on the raw text with plain string operations, not an HTML
// parser. Callers depend on the Matcher interface so a stricter parser can
// replace Literal without touching the build pipeline.
package tags

import "strings"

// Slot is the placeholder a layout's page content replaces.
const Slot = "<slot></slot>"

// Snippet is a named fragment available for substitution.
type Snippet struct {
	Name    string
	Content string
}

// Matcher decides layout membership and performs substitutions.
type Matcher interface {
	// MatchLayout reports whether text is wrapped in the named layout's tags.
	MatchLayout(text, name string) bool
	// Wrap inserts page into layout at the slot and strips every name tag.
	Wrap(layout, page, name string) string
	// ReplaceSnippets substitutes every snippet tag in text in a single pass
	// and returns the names of the snippets that were used.
	ReplaceSnippets(text string, snippets []Snippet) (string, []string)
}

// Literal is the whole-text literal Matcher.
type Literal struct{}

var _ Matcher = Literal{}

func openTag(name string) string  { return "<" + name + ">" }
func closeTag(name string) string { return "</" + name + ">" }

// Spellings returns the accepted snippet tag forms for name.
func Spellings(name string) []string {
	return []string{"<" + name + "></" + name + ">", "<" + name + "/>", "<" + name + " />"}
}

func (Literal) MatchLayout(text, name string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, openTag(name)) && strings.HasSuffix(trimmed, closeTag(name))
}

func (Literal) Wrap(layout, page, name string) string {
	out := strings.Replace(layout, Slot, page, 1)
	return strings.NewReplacer(openTag(name), "", closeTag(name), "").Replace(out)
}

func (Literal) ReplaceSnippets(text string, snippets []Snippet) (string, []string) {
	var (
		pairs []string
		used  []string
	)
	for _, sn := range snippets {
		found := false
		for _, tag := range Spellings(sn.Name) {
			if strings.Contains(text, tag) {
				found = true
			}
			pairs = append(pairs, tag, sn.Content)
		}
		if found {
			used = append(used, sn.Name)
		}
	}
	if len(used) == 0 {
		return text, nil
	}
	// strings.Replacer scans left to right once; inserted content is never
	// rescanned, so snippets cannot expand each other.
	return strings.NewReplacer(pairs...).Replace(text), used
}
