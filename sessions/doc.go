// Package sessions tracks the logical client connections of the server. Each
// session binds an opaque identifier to the outbound event stream and, once
// the consent flow completes, to an authorized Search Console operation set.
//
// The Registry is the only mutable shared structure in the process. It is
// mutated from three independent paths (stream open, OAuth callback, stream
// close) and read from the dispatch path; all four are safe to run
// concurrently.
package sessions
