package api

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/platinummonkey/inkwell/pkg/auth"
	"github.com/platinummonkey/inkwell/pkg/httputil"
	"github.com/platinummonkey/inkwell/pkg/storage"
)

// uploadFormField is the multipart field carrying the file.
const uploadFormField = "file"

type deleteFilesRequest struct {
	Names []string `json:"names"`
}

type deleteFilesResponse struct {
	Deleted int      `json:"deleted"`
	Failed  []string `json:"failed,omitempty"`
}

// getFile handles GET /api/files/{name}, streaming the object with its
// stored content type.
func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	if s.objects == nil {
		httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "object storage is not configured")
		return
	}

	name, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return
	}

	body, contentType, err := s.objects.GetObject(r.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteNotFoundError(w, "file not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := io.Copy(w, body); err != nil {
		s.logger.WithError(err).WithField("object", name).Warn("file stream interrupted")
	}
}

// uploadFile handles POST /api/files. The stored object name is a fresh
// random handle, so uploads can never collide or overwrite each other.
func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	if s.objects == nil {
		httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "object storage is not configured")
		return
	}
	if !auth.IdentityFromContext(r.Context()).CanAuthor() {
		httputil.WriteForbidden(w, "uploading requires the moderator or admin role")
		return
	}

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		httputil.WriteBadRequest(w, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	name := uuid.NewString() + sanitizeExtension(header.Filename)
	contentType := header.Header.Get("Content-Type")

	if err := s.objects.PutObject(r.Context(), name, file, contentType); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteCreated(w, map[string]string{
		"name": name,
		"url":  "/api/files/" + name,
	})
}

// deleteFiles handles DELETE /api/files with a batch of object names. The
// batch is best-effort: objects that fail to delete are reported back and
// left for the maintenance sweep.
func (s *Server) deleteFiles(w http.ResponseWriter, r *http.Request) {
	if s.objects == nil {
		httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "object storage is not configured")
		return
	}
	if !auth.IdentityFromContext(r.Context()).CanAuthor() {
		httputil.WriteForbidden(w, "deleting uploads requires the moderator or admin role")
		return
	}

	var req deleteFilesRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if len(req.Names) == 0 {
		httputil.WriteBadRequest(w, "names is required")
		return
	}

	failed := s.objects.DeleteObjects(r.Context(), s.logger, req.Names)
	httputil.WriteSuccess(w, deleteFilesResponse{
		Deleted: len(req.Names) - len(failed),
		Failed:  failed,
	})
}

// sanitizeExtension keeps a short, safe file extension from an uploaded
// filename, or none at all.
func sanitizeExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if ext == "" || ext == "." || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
