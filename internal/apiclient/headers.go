package apiclient

import (
	"fmt"
	"net/http"
)

// BuildHeaders merges caller headers over the JSON default and injects
// Authorization: Bearer <token> last, so a non-empty token always wins.
func BuildHeaders(accessToken string, custom map[string]string) http.Header {
	h := make(http.Header, len(custom)+2)
	h.Set("Content-Type", "application/json")

	for k, v := range custom {
		h.Set(k, v)
	}

	if accessToken != "" {
		h.Set("Authorization", fmt.Sprintf("Bearer %s", accessToken))
	}

	return h
}
