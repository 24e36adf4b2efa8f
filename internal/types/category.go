package types

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// JobCategory is a practice track the user can pick
type JobCategory struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Categories is the built-in catalog shown on the category selection screen
var Categories = []JobCategory{
	{Slug: "software-engineer", Name: "Software Engineer"},
	{Slug: "product-manager", Name: "Product Manager"},
	{Slug: "ux-ui-designer", Name: "UX/UI Designer"},
	{Slug: "data-scientist", Name: "Data Scientist"},
}

// FormatJobCategory turns a slug such as "software-engineer" into "Software Engineer".
// Each dash-separated word gets its first letter upper-cased; the rest is left as is.
func FormatJobCategory(slug string) string {
	decoded, err := url.PathUnescape(slug)
	if err != nil {
		decoded = slug
	}

	words := strings.Split(decoded, "-")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if r == utf8.RuneError {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
