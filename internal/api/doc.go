// Package api exposes the notification manager over HTTP.
//
// Routes:
//
//	POST /api/events/{kind}   JSON object of template parameters; 202 on success
//	GET  /api/handlers        registered handlers with queue depth
//	GET  /api/history         recent deliveries (?limit=N), when history is enabled
//	GET  /metrics             Prometheus metrics
//
// When a token is configured every /api route requires
// "Authorization: Bearer <token>". Errors are JSON objects with an "error"
// field.
package api
