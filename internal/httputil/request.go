package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"sharedrive/internal/domain"
)

// maxJSONBody bounds JSON request bodies. Uploads use multipart and have their own limit.
const maxJSONBody = 1 << 20

// ParseJSON decodes a JSON request body into dest. Unknown fields are rejected.
// Decoding failures match domain.ErrValidation.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes: %w", tooLarge.Limit, domain.ErrValidation)
		}
		return fmt.Errorf("invalid JSON: %v: %w", err, domain.ErrValidation)
	}
	return nil
}

// ParseIDList splits a comma separated query value into ids.
// Empty elements are dropped.
func ParseIDList(value string) []string {
	ids := []string{}
	for _, id := range strings.Split(value, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
