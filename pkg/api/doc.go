// Package api defines the data contracts shared across the engine: flows,
// steps and their branching rules, sessions, users, channel configurations,
// feed events, and the HTTP request/response types.
package api
