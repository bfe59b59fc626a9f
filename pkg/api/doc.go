// Package api implements the HTTP surface of the service.
//
// Every protected handler re-runs the authorization gate with the raw
// session token, so each request's decision reflects the directory's
// current state. Handlers never branch on roles themselves; they hand the
// action to the gate and map its refusals onto 401 and 403 responses.
// Unknown targets and targets in other organizations produce identical
// responses.
package api
