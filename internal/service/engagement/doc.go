// Package engagement exposes the engagement analytics engine as a
// request-scoped service.
//
// The service validates a report query, fetches one tenant's events and
// subscribers through the source interfaces defined here, and hands the
// snapshot to the pure analytics pipeline. Either a complete report or a
// single error is returned; partial results are never cached or archived.
//
// Source implementations live in repository/postgres/. The report cache
// lives in cache/ and the snapshot archive in storage/.
package engagement
