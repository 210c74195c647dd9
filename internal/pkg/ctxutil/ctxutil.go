// Package ctxutil holds small context helpers shared by outbound clients.
package ctxutil

import "context"

// Default substitutes context.Background() for a nil ctx so request
// constructors never panic on callers that pass nothing.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
