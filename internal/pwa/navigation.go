package pwa

import (
	"net/url"
	"strings"
)

// Resolution is the outcome of matching a request against the precache.
type Resolution struct {
	// URL is the precache entry that answers the request, empty when none does.
	URL string `json:"url"`
	// Fallback is set when URL is the navigate fallback rather than a direct hit.
	Fallback bool `json:"fallback"`
}

// Found reports whether any precache entry answers the request.
func (r Resolution) Found() bool { return r.URL != "" }

// Router answers requests from a precache the way the generated worker does.
type Router struct {
	precache   *Precache
	keys       *KeyNormalizer
	fallback   string
	dirHandler bool
}

// NewRouter builds a Router over precache with the rules in opts.
func NewRouter(precache *Precache, opts Options) (*Router, error) {
	keys, err := NewKeyNormalizer(opts.Workbox.IgnoreURLParametersMatching)
	if err != nil {
		return nil, err
	}
	return &Router{
		precache:   precache,
		keys:       keys,
		fallback:   opts.Workbox.NavigateFallback,
		dirHandler: opts.Experimental.DirectoryAndTrailingSlashHandler,
	}, nil
}

// Resolve matches requestURL. Navigation requests that miss are answered by
// the navigate fallback when it is precached.
func (r *Router) Resolve(requestURL string, navigation bool) (Resolution, error) {
	key, err := r.keys.Normalize(requestURL)
	if err != nil {
		return Resolution{}, err
	}
	u, err := url.Parse(key)
	if err != nil {
		return Resolution{}, err
	}
	if u.RawQuery == "" {
		if hit := r.lookup(u.Path); hit != "" {
			return Resolution{URL: hit}, nil
		}
	}
	if navigation && r.fallback != "" {
		if hit := r.lookup(r.fallback); hit != "" {
			return Resolution{URL: hit, Fallback: true}, nil
		}
	}
	return Resolution{}, nil
}

func (r *Router) lookup(p string) string {
	for _, c := range r.candidates(p) {
		if r.precache.Has(c) {
			return c
		}
	}
	return ""
}

// candidates lists precache URLs that may answer path p, most specific first.
func (r *Router) candidates(p string) []string {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return []string{"index.html"}
	}
	if strings.HasSuffix(p, "/") {
		out := []string{p + "index.html"}
		if r.dirHandler {
			out = append(out, strings.TrimSuffix(p, "/")+".html")
		}
		return out
	}
	out := []string{p, p + ".html"}
	if r.dirHandler {
		out = append(out, p+"/index.html")
	}
	return out
}
