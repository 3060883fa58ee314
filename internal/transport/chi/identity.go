package chi

import (
	"net"
	"net/http"
	"strings"
)

// ClientIdentity returns the rate-limit identity of a request: the first
// X-Forwarded-For entry, else the host part of RemoteAddr.
func ClientIdentity(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
