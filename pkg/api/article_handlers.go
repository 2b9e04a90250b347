package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/platinummonkey/inkwell/pkg/auth"
	"github.com/platinummonkey/inkwell/pkg/content"
	"github.com/platinummonkey/inkwell/pkg/httputil"
	"github.com/platinummonkey/inkwell/pkg/middleware"
	"github.com/platinummonkey/inkwell/pkg/storage"
)

const (
	searchDefaultLimit = 50
	searchMaxLimit     = 500
)

type articleRequest struct {
	Slug      *string         `json:"slug,omitempty"`
	Title     string          `json:"title"`
	Body      string          `json:"body"`
	Published bool            `json:"published"`
	Sticky    bool            `json:"sticky"`
	Featured  bool            `json:"featured"`
	Fields    []content.Field `json:"fields,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
}

type searchResponse struct {
	Results []content.ArticleSummary `json:"results"`
	Total   int64                    `json:"total"`
	Limit   int                      `json:"limit"`
	Offset  int                      `json:"offset"`
}

// createArticle handles POST /api/articles. Only authoring roles may create.
func (s *Server) createArticle(w http.ResponseWriter, r *http.Request) {
	caller := auth.IdentityFromContext(r.Context())
	if !caller.CanAuthor() {
		httputil.WriteForbidden(w, "authoring requires the moderator or admin role")
		return
	}

	var req articleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	article, err := articleFromRequest(&req)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	article.AuthorID = caller.UserID

	if err := s.store.CreateArticle(r.Context(), article); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteCreated(w, article)
}

// getArticle handles GET /api/articles/{id} and GET /articles/{id}. The
// visibility filter makes invisible and absent articles indistinguishable.
func (s *Server) getArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	article, err := s.store.GetArticle(r.Context(), id, auth.IdentityFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteNotFoundError(w, "article not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, article)
}

// updateArticle handles PUT /api/articles/{id}. Only the author or an admin
// may update; articles invisible to the caller read as absent.
func (s *Server) updateArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	caller := auth.IdentityFromContext(r.Context())

	existing, err := s.store.GetArticle(r.Context(), id, caller)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteNotFoundError(w, "article not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	if !canMutateArticle(caller, existing) {
		httputil.WriteForbidden(w, "only the author or a privileged role may modify this article")
		return
	}

	var req articleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	article, err := articleFromRequest(&req)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	article.ID = id
	article.AuthorID = existing.AuthorID
	article.CreatedAt = existing.CreatedAt

	if err := s.store.UpdateArticle(r.Context(), article); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteNotFoundError(w, "article not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, article)
}

// deleteArticle handles DELETE /api/articles/{id}. Image objects are removed
// from object storage best-effort after the row is gone; a failed object
// delete never fails the request.
func (s *Server) deleteArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	caller := auth.IdentityFromContext(r.Context())

	existing, err := s.store.GetArticle(r.Context(), id, caller)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteNotFoundError(w, "article not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	if !canMutateArticle(caller, existing) {
		httputil.WriteForbidden(w, "only the author or a privileged role may delete this article")
		return
	}

	if err := s.store.DeleteArticle(r.Context(), id); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	if s.objects != nil {
		var keys []string
		for _, f := range existing.Fields {
			if f.Kind == content.FieldImage && f.Value != "" {
				keys = append(keys, f.Value)
			}
		}
		if failed := s.objects.DeleteObjects(r.Context(), s.logger, keys); len(failed) > 0 {
			s.logger.WithField("objects", failed).Warn("orphaned image objects left behind, sweep will retry")
		}
	}

	httputil.WriteNoContent(w)
}

// listArticles handles GET /api/articles and GET /articles.
func (s *Server) listArticles(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.ListArticles(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, summaries)
}

// searchArticles handles GET /api/articles/search?q=keyword. An empty keyword
// matches every visible article.
func (s *Server) searchArticles(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("q")
	limit := httputil.QueryInt(r, "limit", searchDefaultLimit)
	if limit <= 0 {
		limit = searchDefaultLimit
	}
	if limit > searchMaxLimit {
		limit = searchMaxLimit
	}
	offset := httputil.QueryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	results, total, err := s.store.SearchArticles(r.Context(), keyword, auth.IdentityFromContext(r.Context()), limit, offset)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, searchResponse{
		Results: results,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

// resolveSlug handles GET /api/articles/slug/{slug}.
func (s *Server) resolveSlug(w http.ResponseWriter, r *http.Request) {
	slug, ok := httputil.ParsePathStringOrError(w, r, "slug")
	if !ok {
		return
	}

	id, err := s.store.ResolveSlug(r.Context(), slug, auth.IdentityFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteNotFoundError(w, "article not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]int64{"id": id})
}

// renderCodeField handles GET /api/code/{id}, returning the code field as a
// standalone highlighted HTML document meant to be embedded in a same-origin
// frame.
func (s *Server) renderCodeField(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	field, err := s.store.GetCodeField(r.Context(), id, auth.IdentityFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteNotFoundError(w, "code field not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	language := ""
	if field.Meta != nil {
		language = *field.Meta
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "SAMEORIGIN")
	w.Header().Set("Content-Security-Policy", "frame-ancestors 'self'")
	if err := highlightCode(w, field.Value, language); err != nil {
		s.logger.WithError(err).Error("failed to render code field")
	}
}

// highlightCode writes source as a standalone highlighted HTML document.
// Unknown languages fall back to plain text rather than failing.
func highlightCode(w http.ResponseWriter, source, language string) error {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return fmt.Errorf("failed to tokenise code: %w", err)
	}

	formatter := chromahtml.New(
		chromahtml.Standalone(true),
		chromahtml.WithLineNumbers(true),
	)
	style := styles.Get("friendly")
	if style == nil {
		style = styles.Fallback
	}
	if err := formatter.Format(w, style, iterator); err != nil {
		return fmt.Errorf("failed to format code: %w", err)
	}
	return nil
}

// canMutateArticle reports whether the caller may update or delete the
// article: its author, or any authoring role (admin, moderator).
func canMutateArticle(caller *auth.Identity, article *content.Article) bool {
	if caller == nil {
		return false
	}
	return caller.CanAuthor() || article.AuthorID == caller.UserID
}

// articleFromRequest validates the payload and builds the article. The slug
// defaults to the slugified title when the payload omits it.
func articleFromRequest(req *articleRequest) (*content.Article, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, errors.New("title is required")
	}

	slug := req.Slug
	if slug == nil {
		derived := middleware.Slugify(req.Title)
		if derived != "" {
			slug = &derived
		}
	} else if strings.TrimSpace(*slug) == "" {
		slug = nil
	}

	for i := range req.Fields {
		if !req.Fields[i].Kind.Valid() {
			return nil, fmt.Errorf("unknown field kind: %s", req.Fields[i].Kind)
		}
		req.Fields[i].Position = i
	}

	tags := make([]content.Tag, 0, len(req.Tags))
	for _, name := range req.Tags {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tags = append(tags, content.Tag{Name: name})
	}

	return &content.Article{
		Slug:      slug,
		Title:     req.Title,
		Body:      req.Body,
		Published: req.Published,
		Sticky:    req.Sticky,
		Featured:  req.Featured,
		Fields:    req.Fields,
		Tags:      tags,
	}, nil
}
