// Package retention enforces how long moderation records are kept.
//
// A Pruner deletes records older than the configured number of days and,
// when MaxRecords is set, the oldest records beyond that count. Records can
// be archived to a JSON file before deletion. A Scheduler runs named jobs,
// such as pruning and strike cleanup, on cron schedules.
package retention
