package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/platinummonkey/inkwell/pkg/auth"
	"github.com/platinummonkey/inkwell/pkg/content"
	"github.com/platinummonkey/inkwell/pkg/httputil"
	"github.com/platinummonkey/inkwell/pkg/observability"
	"github.com/platinummonkey/inkwell/pkg/storage"
)

// SlugResolver resolves an article slug to an id under the caller's
// visibility.
type SlugResolver interface {
	ResolveSlug(ctx context.Context, slug string, caller *auth.Identity) (int64, error)
}

// SettingReader fetches a single setting by key.
type SettingReader interface {
	GetSetting(ctx context.Context, key string) (*content.Setting, error)
}

// DefaultRewriteTimeout bounds the storage lookups a single rewrite decision
// may spend before the request falls through unchanged.
const DefaultRewriteTimeout = 2 * time.Second

// reservedSegments are first path segments that are never treated as slug
// candidates.
var reservedSegments = map[string]struct{}{
	"api":      {},
	"articles": {},
	"users":    {},
	"admin":    {},
	"login":    {},
	"logout":   {},
	"register": {},
	"static":   {},
	"metrics":  {},
	"healthz":  {},
}

// RewriterConfig configures the path rewriter.
type RewriterConfig struct {
	// ProxyFiles enables rewriting /uploads/{name} to the file serving API.
	ProxyFiles bool
	// AliasSettingKey is the settings key whose value, slugified, rewrites a
	// matching bare path to the article listing.
	AliasSettingKey string
	// Timeout bounds the lookups behind one rewrite decision. Zero means
	// DefaultRewriteTimeout.
	Timeout time.Duration
}

// Rewriter maps incoming request paths onto canonical routes before the mux
// sees them. Every lookup it performs is advisory: on any failure the request
// continues with its original path.
type Rewriter struct {
	cfg      RewriterConfig
	settings SettingReader
	resolver SlugResolver
	metrics  *observability.Metrics
	logger   *observability.Logger
}

// NewRewriter creates the path rewriter.
func NewRewriter(cfg RewriterConfig, settings SettingReader, resolver SlugResolver, metrics *observability.Metrics, logger *observability.Logger) *Rewriter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRewriteTimeout
	}
	return &Rewriter{
		cfg:      cfg,
		settings: settings,
		resolver: resolver,
		metrics:  metrics,
		logger:   logger,
	}
}

// Handler applies, in order: the asset rewrite, the alias rewrite, the slug
// rewrite, and finally passthrough. The gate must run before this handler so
// slug resolution sees the caller's identity.
func (rw *Rewriter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rw.cfg.ProxyFiles {
			if name, ok := strings.CutPrefix(r.URL.Path, "/uploads/"); ok && name != "" && !strings.Contains(name, "/") {
				rw.rewrite(r, "/api/files/"+name, "asset")
				next.ServeHTTP(w, r)
				return
			}
		}

		segment, ok := slugCandidate(r.URL.Path)
		if !ok {
			rw.passthrough(w, r, next)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), rw.cfg.Timeout)
		defer cancel()

		if rw.aliasMatches(ctx, segment) {
			rw.rewrite(r, "/articles", "alias")
			next.ServeHTTP(w, r)
			return
		}

		id, err := rw.resolver.ResolveSlug(ctx, segment, auth.IdentityFromContext(r.Context()))
		switch {
		case err == nil:
			rw.rewrite(r, fmt.Sprintf("/articles/%d", id), "slug")
			next.ServeHTTP(w, r)
		case errors.Is(err, storage.ErrNotFound):
			rw.passthrough(w, r, next)
		default:
			rw.logger.WithError(err).WithField("segment", segment).Warn("slug resolution failed, passing request through")
			if rw.metrics != nil {
				rw.metrics.ResolverFailedOpen.Inc()
			}
			rw.passthrough(w, r, next)
		}
	})
}

func (rw *Rewriter) rewrite(r *http.Request, path, outcome string) {
	r.URL.Path = path
	if rw.metrics != nil {
		rw.metrics.RewritesTotal.WithLabelValues(outcome).Inc()
	}
}

func (rw *Rewriter) passthrough(w http.ResponseWriter, r *http.Request, next http.Handler) {
	httputil.SecurityHeaders(w)
	if rw.metrics != nil {
		rw.metrics.RewritesTotal.WithLabelValues("passthrough").Inc()
	}
	next.ServeHTTP(w, r)
}

// aliasMatches reports whether the configured alias setting, slugified,
// equals the candidate segment. Lookup failures are treated as no match.
func (rw *Rewriter) aliasMatches(ctx context.Context, segment string) bool {
	if rw.cfg.AliasSettingKey == "" {
		return false
	}
	setting, err := rw.settings.GetSetting(ctx, rw.cfg.AliasSettingKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			rw.logger.WithError(err).Warn("alias setting lookup failed, skipping alias rewrite")
		}
		return false
	}
	return Slugify(setting.Value) == segment
}

// slugCandidate returns the single path segment of a bare root-level path,
// or false when the path is nested, reserved, or names a file.
func slugCandidate(path string) (string, bool) {
	segment := strings.TrimPrefix(path, "/")
	if segment == "" || strings.Contains(segment, "/") {
		return "", false
	}
	if strings.Contains(segment, ".") {
		return "", false
	}
	if _, reserved := reservedSegments[segment]; reserved {
		return "", false
	}
	return segment, true
}

// Slugify lowercases a title and replaces spaces with hyphens, mirroring how
// article slugs are derived from titles.
func Slugify(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}
