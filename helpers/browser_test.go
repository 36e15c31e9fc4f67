package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenBrowserRejectsNonHTTP(t *testing.T) {
	for _, raw := range []string{
		"file:///etc/passwd",
		"javascript:alert(1)",
		"ftp://example.com",
		"",
	} {
		assert.Error(t, OpenBrowser(raw), raw)
	}
}
