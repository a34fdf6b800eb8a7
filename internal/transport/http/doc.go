// Package http implements the HTTP handlers for the report service.
// It is a thin layer between transport and the report pipeline: handlers
// parse and validate requests, delegate to the service layer, and format
// responses. Service errors are translated to structured JSON error
// bodies by the shared error handler.
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → Service
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// Generated PDFs are streamed back with a Content-Disposition attachment
// header; everything else is JSON.
package http
