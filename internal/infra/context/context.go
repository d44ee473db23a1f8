// Package context holds request-scoped values shared by the client layers.
package context

type contextKey string
