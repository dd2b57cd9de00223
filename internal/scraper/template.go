package scraper

import (
	"fmt"
	"regexp"
	"strings"

	"CouncilScraper/internal/domain"
)

var placeholderExpr = regexp.MustCompile(`\{([a-z_][a-z0-9_]*)\}`)

// ResolveTemplate expands {field} placeholders in tmpl with fields of obj.
// A blank template resolves to the object's own url.
func ResolveTemplate(tmpl string, obj domain.Entity) (string, error) {
	if strings.TrimSpace(tmpl) == "" {
		target, _ := obj.Field("url")
		if strings.TrimSpace(target) == "" {
			return "", domain.NewScraperError(fmt.Sprintf("%s %s has no url", obj.Kind(), describe(obj)), nil)
		}
		return target, nil
	}

	var missing []string
	resolved := placeholderExpr.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := obj.Field(name)
		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})
	if len(missing) > 0 {
		return "", domain.NewScraperError(
			fmt.Sprintf("url template %q references unknown %s fields: %s", tmpl, obj.Kind(), strings.Join(missing, ", ")), nil)
	}
	return resolved, nil
}

// describe identifies an entity in error messages.
func describe(obj domain.Entity) string {
	if key := obj.Key(); key != "" {
		return key
	}
	if obj.Persisted() {
		return fmt.Sprintf("#%d", obj.EntityID())
	}
	if u, _ := obj.Field("url"); u != "" {
		return u
	}
	return "(new)"
}
