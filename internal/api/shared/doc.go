// Package shared holds the request decoding, response writing and context
// helpers used by the api handlers and middleware.
package shared
