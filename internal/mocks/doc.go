// Package mocks provides hand-written test doubles for phrasify's
// interfaces. They record their calls and let tests override behavior
// through function fields.
package mocks
