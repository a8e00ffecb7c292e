// Package pwa implements the offline caching rule set of a documentation site:
// which build artifacts are precached, how cache keys ignore query parameters,
// how navigations fall back, and the configuration document handed to the
// service-worker generator.
package pwa
