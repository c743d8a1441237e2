// Package httpserver constructs the process's HTTP server.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server tuned for a scraping proxy: a request can hold the
// connection open while the upstream fetch runs, so the write timeout sits
// above the navigator's deadline and the router's 30s request timeout.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
}
