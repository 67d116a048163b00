// Package scheduling implements content scheduling for multi-platform
// publishing: conflict detection, bulk distribution strategies, calendar
// views, and optimal posting time suggestions.
//
// The service layer owns ScheduledContent. The publishing manager only
// mutates status, retry counters, notification markers, and the failure
// reason. Repository implementations live in repository/postgres/.
package scheduling
