package api

import (
	"net/http"

	"github.com/platinummonkey/inkwell/pkg/httputil"
)

// listTags handles GET /api/tags?search=prefix. Tags are deduplicated by
// name; the optional search term narrows by substring.
func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.ListTags(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, tags)
}
