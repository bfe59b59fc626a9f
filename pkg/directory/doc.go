// Package directory provides implementations of the profile directory the
// authorization core reads actor records from. The PostgreSQL implementation
// backs production; the in-memory implementation backs tests and local
// development.
package directory
