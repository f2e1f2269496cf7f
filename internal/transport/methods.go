package transport

import (
	"strconv"
	"strings"
	"time"
)

// Supported HTTP methods accepted by scripts.
const (
	MethodGet     = "GET"
	MethodPost    = "POST"
	MethodPut     = "PUT"
	MethodPatch   = "PATCH"
	MethodDelete  = "DELETE"
	MethodHead    = "HEAD"
	MethodOptions = "OPTIONS"
)

var supportedMethods = map[string]struct{}{
	MethodGet:     {},
	MethodPost:    {},
	MethodPut:     {},
	MethodPatch:   {},
	MethodDelete:  {},
	MethodHead:    {},
	MethodOptions: {},
}

// IsSupportedMethod reports whether method, after normalization, is in the
// canonical supported set.
func IsSupportedMethod(method string) bool {
	_, ok := supportedMethods[NormalizeMethod(method)]
	return ok
}

// SupportedMethods returns the canonical method list in stable order.
func SupportedMethods() []string {
	return []string{
		MethodGet,
		MethodPost,
		MethodPut,
		MethodPatch,
		MethodDelete,
		MethodHead,
		MethodOptions,
	}
}

// NormalizeMethod uppercases method. Empty means GET.
func NormalizeMethod(method string) string {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return MethodGet
	}
	return method
}

// CacheBusterKey is the query key of the single-use timestamp marker.
const CacheBusterKey = "_ts"

// BuildURL appends the serialized query and, when noCache is set, a
// timestamp marker. POST keeps the query out of the URL. The URL is
// concatenated as is; an existing query string is not merged.
func BuildURL(method, rawURL, query string, noCache bool, now time.Time) string {
	ts := CacheBusterKey + "=" + strconv.FormatInt(now.UnixMilli(), 10)

	switch {
	case noCache && method == MethodPost:
		return rawURL + "?" + ts
	case noCache:
		return rawURL + "?" + query + "&" + ts
	case method == MethodPost:
		return rawURL
	default:
		return rawURL + "?" + query
	}
}

// hasBody reports whether the payload travels in the request body.
func hasBody(method string) bool {
	return method != MethodGet && method != MethodHead
}
