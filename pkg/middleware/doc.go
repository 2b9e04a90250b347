// Package middleware provides the request-level policy layer: authorization gating and slug rewriting.
//
// # Overview
//
// This package implements the two middlewares that run between the ambient
// HTTP plumbing and the router: the authorization gate, which decides whether
// a request is processed at all, and the path rewriter, which maps bare slug
// paths to canonical article routes.
//
// The gate is deliberately coarser than the storage visibility filter: it
// governs whole requests, while the visibility filter governs which rows a
// processed request may see.
//
// # Authorization Gate
//
// Gate resolves the session, applies a pure policy over (method, path,
// identity), and injects the identity into the request context:
//
//	gate := middleware.NewGate(sessions, logger)
//	handler = gate.Handler(handler)
//
// The policy itself is exported for direct testing:
//
//	middleware.Allow("GET", "/api/articles", nil)        // true
//	middleware.Allow("POST", "/api/articles", nil)       // false, 401
//	middleware.Allow("GET", "/api/users", nonAdmin)      // false, 403
//
// A broken session downgrades to anonymous rather than failing the request.
//
// # Path Rewriter
//
// Rewriter handles three path shapes before passing anything else through:
//
//	/uploads/{name}  -> /api/files/{name}   (when ProxyFiles is enabled)
//	/{alias-slug}    -> /articles           (slugified alias setting match)
//	/{article-slug}  -> /articles/{id}      (visibility-filtered slug lookup)
//
//	rewriter := middleware.NewRewriter(middleware.RewriterConfig{
//		ProxyFiles:      true,
//		AliasSettingKey: "articles_alias",
//		Timeout:         2 * time.Second,
//	}, settings, resolver, metrics, logger)
//	handler = rewriter.Handler(handler)
//
// Lookups run under a bounded timeout and fail open: on a resolver or
// settings error the request passes through untouched and the failure is
// counted and logged. Passthrough responses carry security headers.
//
// # Related Packages
//
//   - pkg/auth: Session resolution and identity context
//   - pkg/storage: Slug resolution and settings reads behind the rewriter
package middleware
