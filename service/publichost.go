package service

import (
	"net"
	"net/url"
	"strings"
)

// Port browsers reach a dev object store on when the endpoint has to be
// inferred from the request
const inferredStorePort = "9000"

// PublicEndpoint picks the endpoint the browser will use to dereference
// signed URLs. Signatures bind to the exact host string used at sign
// time, so signing with one host and serving through another breaks the
// URL in a way no byte level diff will show. The configured public
// endpoint wins unless it points at loopback, in which case the host is
// inferred from the request's Origin header, falling back to Host
func PublicEndpoint(configured, origin, host string) string {
	if configured != "" && !isLoopback(configured) {
		return strings.TrimRight(configured, "/")
	}

	if origin != "" {
		if u, err := url.Parse(origin); err == nil && u.Hostname() != "" {
			scheme := u.Scheme
			if scheme == "" {
				scheme = "http"
			}
			return scheme + "://" + u.Hostname() + ":" + inferredStorePort
		}
	}

	if host != "" {
		h := host
		if sh, _, err := net.SplitHostPort(host); err == nil {
			h = sh
		}
		return "http://" + h + ":" + inferredStorePort
	}

	return strings.TrimRight(configured, "/")
}

func isLoopback(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}

	h := u.Hostname()
	if h == "localhost" {
		return true
	}

	if ip := net.ParseIP(h); ip != nil {
		return ip.IsLoopback()
	}

	return false
}
