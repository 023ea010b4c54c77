// Package graph is a minimal Microsoft Graph drive client covering what the
// gateway serves: item metadata by path or ID, folder listings, and content
// streams. Every call is issued through the msauth transport, which
// guarantees a fresh bearer credential and the single 401 retry.
package graph
