// Package config loads credvault settings.
//
// Configuration is assembled from multiple sources in the following priority
// order (later sources override earlier non-zero fields):
//  1. Built-in defaults
//  2. Environment variables prefixed with CREDVAULT_
//  3. Command-line flags
//
// The master passphrase is never part of the configuration; see
// package prompt for CREDVAULT_PASSWORD.
package config
