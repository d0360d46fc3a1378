// Package logging assembles structured slog loggers and formatting helpers used
// across streamfinder.
//
// The console handler lifts the component and a shortened correlation id out
// of the attribute list; the JSON handler uses short keys (ts, level, msg,
// caller). WithContext tags a logger with the request id and catalog carried
// by the context, so the two concurrent catalog pipelines of one resolution
// can be told apart.
//
// Serve mode tees its logger into a JSON event log under the state directory
// (OpenEventLog); files older than logging.retention_days are pruned on start.
package logging
