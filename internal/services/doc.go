// Package services contains the report orchestrator: the request-scoped
// pipeline that resolves a template, fetches and transforms rows, renders
// the template and converts the result to PDF. Each generation request runs
// synchronously end to end; there is no background worker or persisted job
// state. Cancellation of the request context aborts in-flight steps, with
// the external conversion being the main cancellation point.
package services
