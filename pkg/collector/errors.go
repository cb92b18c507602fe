package collector

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Sternrassler/gbiz-collector/pkg/client"
)

// ErrInvalidNumber is returned for an input value that is not a 13-digit
// corporate number.
var ErrInvalidNumber = errors.New("invalid corporate number")

// DetailFetchError is a failure to enrich one corporate number. Hydrate logs
// and counts it, then moves on to the next number unless the cause is
// systemic.
type DetailFetchError struct {
	CorporateNumber string
	Err             error
}

// Error implements the error interface.
func (e *DetailFetchError) Error() string {
	return fmt.Sprintf("detail %s: %v", e.CorporateNumber, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DetailFetchError) Unwrap() error {
	return e.Err
}

// MaxNetworkFailures is the number of consecutive transport failures after
// which Hydrate stops instead of failing every remaining number.
const MaxNetworkFailures = 3

// ErrNetworkDown is wrapped into the error Hydrate returns once
// MaxNetworkFailures consecutive detail requests failed in transport.
var ErrNetworkDown = errors.New("gBizINFO unreachable")

// rejectedToken reports whether err is a 401 or 403 answer.
func rejectedToken(err error) bool {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// networkFailure reports whether err is a transport failure.
func networkFailure(err error) bool {
	var apiErr *client.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorClass == client.ErrorClassNetwork
}
