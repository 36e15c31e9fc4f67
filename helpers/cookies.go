package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

// exportedCookie is one entry of a browser cookie export
type exportedCookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
}

// LoadCookies reads a JSON array of {name, value, domain} objects, the shape
// browser cookie-export extensions produce.
func LoadCookies(path string) ([]*http.Cookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cookies %s: %w", path, err)
	}

	var exported []exportedCookie
	if err := json.Unmarshal(data, &exported); err != nil {
		return nil, fmt.Errorf("parsing cookies %s: %w", path, err)
	}

	cookies := make([]*http.Cookie, 0, len(exported))
	for _, c := range exported {
		if c.Name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}
	return cookies, nil
}
