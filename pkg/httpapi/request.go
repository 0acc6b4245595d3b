package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// DecodeJSON reads the request body into dst, enforcing maxBytes and
// rejecting unknown fields. The request body is always consumed.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
