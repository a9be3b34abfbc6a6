package platform

import (
	"regexp"
	"strings"
)

var (
	slugRegex   = regexp.MustCompile(`^[a-z][a-z0-9-]{1,62}$`)
	slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)
)

// ValidSlug reports whether s is a valid tenant slug.
func ValidSlug(s string) bool {
	return slugRegex.MatchString(s) && !strings.HasSuffix(s, "-")
}

// Slugify derives a slug from a display name. The result may still be
// invalid, e.g. when the name starts with a digit.
func Slugify(name string) string {
	s := slugInvalid.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if len(s) > 63 {
		s = strings.TrimRight(s[:63], "-")
	}
	return s
}
