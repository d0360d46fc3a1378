// Package server hosts the HTTP API.
//
// Routes:
//
//	GET /api/health                 liveness and configuration summary
//	GET /api/streams/{type}/{id}    resolve streams (title, original_title, year overrides)
//	GET /api/search?keyword=        raw search against the search-based catalog
//	GET /api/history?limit=         recent resolutions
//	GET /metrics                    Prometheus exposition
//
// When paths.api_token is set, the streams, search and history routes require
// "Authorization: Bearer <token>". Every response carries an X-Request-ID that
// also appears in logs and history.
package server
