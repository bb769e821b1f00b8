// Package observability builds the structured zap logger shared by the
// HTTP stack, the auth middleware and the services.
package observability
