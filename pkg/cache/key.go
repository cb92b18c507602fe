package cache

import (
	"strings"
)

// keyPrefix namespaces every key written by this package.
const keyPrefix = "gbiz"

// Key identifies one cached API response.
type Key struct {
	// Endpoint is the request path, e.g. "/v1/hojin/1234567890123".
	Endpoint string
}

// DetailKey returns the key of the detail response for one corporate number.
func DetailKey(corporateNumber string) Key {
	return Key{Endpoint: "/v1/hojin/" + strings.TrimSpace(corporateNumber)}
}

// String renders the key, e.g. gbiz:v1/hojin/1234567890123.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(keyPrefix)

	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		b.WriteByte(':')
		b.WriteString(endpoint)
	}
	return b.String()
}
