package folio

import (
	"net/url"
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Slugify converts a title to a URL-safe slug. Letters and digits of any
// script are kept; every other run of characters becomes one hyphen.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// tagSlug is the path segment of a tag listing. Tags with no letters or
// digits fall back to their escaped text so the segment is never empty.
func tagSlug(tag string) string {
	if s := Slugify(tag); s != "" {
		return s
	}
	return url.PathEscape(normalizeTag(tag))
}

// BuildURL joins a base URL with a site-relative URL path.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	joined := path.Join(pathSegments...)
	u.Path = path.Join(u.Path, joined)
	if len(pathSegments) > 0 && strings.HasSuffix(pathSegments[len(pathSegments)-1], "/") && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// FilterEmpty removes empty/whitespace-only strings from a slice.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// JoinTags joins tags with ", ".
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// TitleCase turns "web-dev" or "web_dev" into "Web Dev".
func TitleCase(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return cases.Title(language.English).String(s)
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// expandLink substitutes {key} placeholders in a link pattern.
func expandLink(pattern string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(pattern)
}

// sitePath prefixes p with "/" and cleans it.
func sitePath(parts ...string) string {
	return path.Clean("/" + path.Join(parts...))
}
