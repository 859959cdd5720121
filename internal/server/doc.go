// Package server is the websocket transport and connection lifecycle of the
// messaging core, plus the small HTTP surface around it.
//
// Each accepted connection becomes a Session with its own reader and writer
// goroutines. The Manager binds sessions to users in the registry on login,
// hands decoded frames to the router, and unbinds exactly once when the
// session closes. The history endpoints are thin reads over the store.
package server
