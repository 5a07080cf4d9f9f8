package util

import (
	"net/http"
	"net/url"
	"strings"
)

// NewProxyFunc builds the transport proxy function from explicit proxy
// settings, falling back to the process environment when none are set.
// Hosts listed in noProxy (comma-separated, suffix match) bypass the
// proxy entirely; archive APIs reached over an internal network use
// this.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	var skip []string
	for _, h := range strings.Split(noProxy, ",") {
		if h = strings.TrimSpace(h); h != "" {
			skip = append(skip, strings.ToLower(h))
		}
	}

	return func(req *http.Request) (*url.URL, error) {
		host := strings.ToLower(req.URL.Hostname())
		for _, s := range skip {
			if host == s || strings.HasSuffix(host, "."+s) {
				return nil, nil
			}
		}

		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}
