// Package server exposes extraction over HTTP.
//
// Routes:
//
//	GET  /health                 liveness check, {"status":"ok"}
//	POST /api/extract            multipart "file" and "pointers" (JSON array of strings)
//	GET  /api/extractions        recent extractions, when history is enabled
//	GET  /api/extractions/{id}   one stored extraction, when history is enabled
//
// Every request passes through recovery, CORS and request logging
// middleware. Errors are returned as {"error": "..."}.
package server
