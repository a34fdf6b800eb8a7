// Package app assembles the report service: configuration, logging,
// metrics, the row source, the module and template registries, the
// document converter and the HTTP router. The Application type owns the
// server lifecycle from NewApplication through Run to graceful shutdown.
package app
