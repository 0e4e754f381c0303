// Package id generates URL-safe identifiers for content streams, node
// aggregates and events.
//
// Identifiers are UUIDv4 bytes encoded as unpadded lowercase base32, which
// keeps them 26 characters long and safe inside event stream names.
package id
