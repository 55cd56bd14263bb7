// Package reviewengine implements the review engine inside the
// event-review context.
//
// The module owns the multi-reviewer evaluation lifecycle (start/score/
// complete/reopen), weighted consensus aggregation and decision, stage
// progression for applications, and review event production through
// outbox-backed workers. It keeps business rules in application/domain
// layers and isolates infrastructure concerns behind ports and adapters.
package reviewengine
