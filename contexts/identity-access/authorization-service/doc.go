// Package authorizationservice implements event-scoped role management
// inside the identity-access context.
//
// It owns role grants (REVIEWER, DECISION_MAKER) per user and event, and
// exposes the role checks other modules consume as their authorization
// boundary.
package authorizationservice
