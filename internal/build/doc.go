// Package build provides the canonical build execution pipeline for docsite.
//
// A build loads the site descriptor, resolves its sidebar against the content
// tree, checks the external web manifest, scans the rendered site for
// precache entries and writes every artifact atomically. All execution paths
// (CLI commands, watch mode, tests) route through BuildService.
package build
