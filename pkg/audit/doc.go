// Package audit provides structured audit logging for authorization
// decisions and membership mutations.
//
// Events are written through the Logger interface; DBLogger persists them to
// the audit_logs table in PostgreSQL. Handlers obtain the logger from the
// request context via FromContext, which degrades to a no-op when no logger
// is configured, so audit logging never blocks request handling paths that
// run without it (tests, local development).
package audit
