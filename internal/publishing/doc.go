// Package publishing dispatches due schedules to platform publishers.
//
// A single Manager runs a tick loop. Each tick it claims a bounded page of
// due schedules (compare-and-set scheduled → publishing), publishes to every
// target platform, aggregates per-platform results into the schedule's final
// status, and re-arms transient failures with exponential backoff. The
// scheduling engine owns all other fields; this package mutates only Status,
// RetryCount, NotificationsSent, and FailureReason.
package publishing
