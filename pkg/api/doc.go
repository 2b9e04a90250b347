// Package api provides the HTTP REST API server for the CMS.
//
// # Overview
//
// This package implements the HTTP layer that exposes the CMS as RESTful
// endpoints. It handles session auth, article lifecycle and search, tags,
// settings, user management, menu tabs, code-field HTML rendering, and the
// media file API backed by object storage.
//
// # Architecture
//
// The API is built on gorilla/mux and organized into domain-specific handler
// groups:
//
//   - Auth: login, logout, self-service registration, session inspection
//   - Articles: CRUD, slug resolution, keyword search, code-field rendering
//   - Tags: distinct-by-name listing
//   - Settings: key/value reads open, mutations admin-only
//   - Users: admin provisioning and management, self get/update
//   - Menu tabs: navigation entries, mutations admin-only
//   - Files: S3-backed upload, batch delete, and streaming passthrough
//
// # Key Types
//
// Server coordinates the router, stores, and middleware:
//
//	server := api.NewServer(cfg, store, objects, sessions, rewriter, metrics, logger)
//	httpServer := &http.Server{Handler: server.Handler()}
//
// Handler() returns the full chain: request id, logging, recovery, metrics,
// request size limits, then the authorization gate and the path rewriter in
// front of the router. The bare router (without middleware) is reachable via
// ServeHTTP for handler-level tests.
//
// # Authorization
//
// The gate enforces the coarse request policy; handlers re-check the
// fine-grained rules (authoring roles for creation, author-or-privileged for
// article mutation, admin for settings/users/menutabs writes) so a handler is
// safe even if reached through an unexpected route.
//
// # Related Packages
//
//   - pkg/middleware: Gate and rewriter in front of the router
//   - pkg/storage: Store interface the handlers consume
//   - pkg/auth: Session manager and identity context
package api
