// Package orgs manages organizations and their membership: listing members,
// role changes, removals, ownership transfer, and invitations.
//
// Mutations that could strip an organization of its last owner perform the
// owner count and the write inside a single transaction with the member rows
// locked, so the invariant cannot be raced from two concurrent requests.
package orgs
