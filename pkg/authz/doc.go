// Package authz implements the role-based authorization core for Gearbox.
//
// The package centralizes the role/action permission matrix so HTTP handlers
// and services call one gate instead of duplicating role checks. Contextual
// guards (for example the last-owner safety check) are focused evaluators in
// the same package, layered on top of the pure permission decision.
package authz
