// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Overview
//
// This package offers helper functions for JSON encoding/decoding, error responses,
// parameter parsing, and common HTTP middleware patterns.
//
// # Response Helpers
//
// JSON responses:
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteSuccess(w, data)
//	httputil.WriteCreated(w, resource)
//	httputil.WriteNoContent(w)
//
// Error responses:
//
//	httputil.WriteBadRequest(w, "Invalid input")
//	httputil.WriteUnauthorized(w, "Authentication required")
//	httputil.WriteForbidden(w, "Insufficient permissions")
//	httputil.WriteNotFoundError(w, "Article not found")
//	httputil.WriteInternalError(w, err) // logs err, hides detail from the body
//
// # Request Parsing
//
// JSON parsing:
//
//	var req createArticleRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
// Path parameters:
//
//	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
//	slug, ok := httputil.ParsePathStringOrError(w, r, "slug")
//
// Query and form parameters:
//
//	limit := httputil.QueryInt(r, "limit", 50)
//	value, err := httputil.FormValue(r, "value")
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.MaxBytesMiddleware(32*1024*1024),
//	)
//
// # Related Packages
//
//   - pkg/middleware: Authorization gate and path-rewrite middleware
package httputil
