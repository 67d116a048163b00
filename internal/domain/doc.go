// Package domain holds the shared entities of the engagement platform:
// inbound social events, brand context, analysis results, routed decisions,
// and scheduled content. Types here carry no behavior beyond small guards
// and are shared by the decision, scheduling, and publishing layers.
package domain
