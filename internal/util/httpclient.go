package util

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/veridoc/veridoc/internal/model"
)

// NewHTTPClient builds the outbound client shared by the document fetcher
// and the evidence searcher. Redirects are capped at 3 hops so a
// misbehaving source cannot bounce us around indefinitely.
func NewHTTPClient(cfg model.HTTPConfig) *http.Client {
	transport := &http.Transport{
		Proxy: proxySelector(cfg),
	}
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}
}

// proxySelector returns a per-request proxy chooser. With no explicit
// proxy configured it defers to the standard environment variables.
func proxySelector(cfg model.HTTPConfig) func(*http.Request) (*url.URL, error) {
	if cfg.HTTPProxy == "" && cfg.HTTPSProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if hostExcluded(req.URL.Hostname(), cfg.NoProxy) {
			return nil, nil
		}
		if req.URL.Scheme == "https" && cfg.HTTPSProxy != "" {
			return url.Parse(cfg.HTTPSProxy)
		}
		if cfg.HTTPProxy != "" {
			return url.Parse(cfg.HTTPProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

// hostExcluded reports whether host matches any entry in a comma-separated
// no-proxy list. Entries match exactly or as domain suffixes.
func hostExcluded(host, noProxy string) bool {
	if noProxy == "" {
		return false
	}
	for _, entry := range strings.Split(noProxy, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if host == entry || strings.HasSuffix(host, "."+strings.TrimPrefix(entry, ".")) {
			return true
		}
	}
	return false
}
