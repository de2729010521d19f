// Package gateway is the session-scoped tool-invocation dispatcher. It
// advertises the static tool catalog, enforces the credential precondition on
// every call, routes tool calls to the Search Console operation set, and
// normalizes every lower-layer failure into a JSON-RPC error envelope. No
// failure crosses this boundary unhandled.
package gateway
