package spec

import (
	"fmt"
	"net/http"
	"strings"
)

const (
	curlContentType = `-H "Content-Type: application/json"`
	curlAccept      = `-H "Accept: application/json"`
	curlEmptyBody   = `-d '{}'`
)

// EndpointURL joins the base URL and the endpoint path verbatim.
func EndpointURL(baseURL string, ep Endpoint) string {
	return baseURL + ep.Path
}

// CurlCommand renders a copyable curl invocation for ep. Operations that can
// carry a body and declare one get an empty JSON placeholder.
func CurlCommand(baseURL string, ep Endpoint) string {
	parts := []string{
		"curl -X " + ep.Method,
		fmt.Sprintf("%q", EndpointURL(baseURL, ep)),
		curlContentType,
		curlAccept,
	}
	if acceptsBody(ep.Method) && ep.HasRequestBody() {
		parts = append(parts, curlEmptyBody)
	}
	return strings.Join(parts, " ")
}

func acceptsBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
