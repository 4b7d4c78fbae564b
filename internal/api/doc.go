// Package api implements the phrasify generation server: HTTP handlers that
// generate card batches directly or serve single cards from the replenishing
// cache, plus the router tying them to middleware, health and metrics.
//
// The remote generator in platform/remote is the client of this API, so the
// request and response types here are its wire format.
package api
