// Package auth issues and validates the HMAC-signed bearer tokens exchanged
// between the remote card generator client and the generation server.
package auth
