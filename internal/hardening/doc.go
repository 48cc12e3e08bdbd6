// Package hardening provides runtime abuse protections for file
// processing: a sliding-window rate limiter, a content hash cache that
// avoids rehashing unchanged files, and a security event monitor that
// blocks sources generating repeated violations.
//
// All types in this package are safe for concurrent use.
package hardening
