// Package server exposes the compile pipeline over HTTP.
//
// Routes:
//
//	POST /v1/documents  compile a document request, PDFs returned as base64
//	GET  /healthz       converter and compiler availability
//	GET  /metrics       Prometheus exposition, when a registry is configured
//
// Every response carries an X-Request-ID header, also logged with each line
// written while the request is served.
package server
