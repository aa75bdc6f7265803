// Package uploads hands out presigned URLs for direct-to-bucket image uploads.
package uploads

import (
	"context"
	"net/http"
	"time"

	"github.com/5w1tchy/book-art/internal/api/apperr"
	"github.com/5w1tchy/book-art/internal/api/httpx"
	"github.com/5w1tchy/book-art/internal/storage/s3"
	"github.com/5w1tchy/book-art/internal/validate"
)

// Presigner is the slice of *s3.S3Client the handler needs.
type Presigner interface {
	PresignUpload(ctx context.Context, objectKey, contentType string) (string, error)
	PublicURL(objectKey string) string
}

type presignRequest struct {
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,startswith=image/,max=100"`
}

type presignResponse struct {
	UploadURL string    `json:"uploadUrl"`
	Key       string    `json:"key"`
	PublicURL string    `json:"publicUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Presign handles POST /api/uploads/presign. A nil store answers 503.
func Presign(store Presigner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			apperr.Write(w, http.StatusServiceUnavailable, "Uploads are not configured")
			return
		}
		defer r.Body.Close()

		var req presignRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			apperr.Write(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if err := validate.Struct(req); err != nil {
			apperr.Write(w, http.StatusBadRequest, err.Error())
			return
		}

		key := s3.ArtKey(req.Filename)
		url, err := store.PresignUpload(r.Context(), key, req.ContentType)
		if err != nil {
			apperr.Internal(w, r, err, "Failed to create upload URL")
			return
		}
		httpx.OK(w, presignResponse{
			UploadURL: url,
			Key:       key,
			PublicURL: store.PublicURL(key),
			ExpiresAt: time.Now().Add(s3.UploadTTL).UTC(),
		})
	}
}
