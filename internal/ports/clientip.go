package ports

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// forwardedClient returns the X-Forwarded-For entry written by the outermost of trustedHops proxies
//
// Entries left of it are supplied by the client and ignored.
func forwardedClient(r *http.Request, trustedHops int) (netip.Addr, bool) {
	if trustedHops <= 0 {
		return netip.Addr{}, false
	}

	entries := []string{}
	for _, header := range r.Header.Values("X-Forwarded-For") {
		for _, entry := range strings.Split(header, ",") {
			entries = append(entries, strings.TrimSpace(entry))
		}
	}

	if len(entries) < trustedHops {
		return netip.Addr{}, false
	}

	addr, err := netip.ParseAddr(entries[len(entries)-trustedHops])
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

// NewClientIPHandler rewrites RemoteAddr to the client address reported by trusted proxies
//
// Requests without a usable X-Forwarded-For entry keep their RemoteAddr.
func NewClientIPHandler(next http.Handler, trustedHops int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if client, ok := forwardedClient(r, trustedHops); ok {
			r = r.WithContext(r.Context())
			r.RemoteAddr = net.JoinHostPort(client.String(), "0")
		}
		next.ServeHTTP(w, r)
	})
}
