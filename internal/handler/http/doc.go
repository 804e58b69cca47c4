// Package http implements the HTTP transport layer of the server.
// It provides middleware, route handlers, and request/response utilities
// for the synchronization API. Authentication, logging and tracing are all
// handled at this layer before requests reach the service layer.
package http
