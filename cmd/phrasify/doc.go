// Package main implements the phrasify command line tool.
//
// phrasify serves translation cards over HTTP (serve), draws cards from the
// replenishing cache (next), renders card templates through the field
// filter (render), and maintains the queue store (cache, migrate).
package main
