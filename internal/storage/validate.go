package storage

import (
	"strings"

	"herald/internal/types"
)

// NormalizeFeed trims the fields and checks that both are present.
func NormalizeFeed(name, url string) (string, string, error) {
	name = strings.TrimSpace(name)
	url = strings.TrimSpace(url)

	if name == "" {
		return "", "", types.NewValidationError("name", "must not be empty")
	}
	if url == "" {
		return "", "", types.NewValidationError("url", "must not be empty")
	}

	return name, url, nil
}

// NormalizeSite trims every field of site. The body selector is optional.
// Selector syntax is not checked here; a bad selector fails at fetch time.
func NormalizeSite(site types.ScrapeSite) (types.ScrapeSite, error) {
	site.Name = strings.TrimSpace(site.Name)
	site.URL = strings.TrimSpace(site.URL)
	site.TitleSelector = strings.TrimSpace(site.TitleSelector)
	site.LinkSelector = strings.TrimSpace(site.LinkSelector)
	site.BodySelector = strings.TrimSpace(site.BodySelector)

	required := []struct {
		field string
		value string
	}{
		{"name", site.Name},
		{"url", site.URL},
		{"title_selector", site.TitleSelector},
		{"link_selector", site.LinkSelector},
	}

	for _, r := range required {
		if r.value == "" {
			return types.ScrapeSite{}, types.NewValidationError(r.field, "must not be empty")
		}
	}

	return site, nil
}
