package controllers

import (
	"errors"
	"net/http"

	"github.com/himalayan-naturals/storefront-backend/api/responses"
	"github.com/himalayan-naturals/storefront-backend/internal/media"
	pkgerrors "github.com/himalayan-naturals/storefront-backend/pkg/errors"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
)

// multipart framing on top of the file itself
const multipartOverhead = 1 << 20

// MediaUpload accepts a multipart form with a "file" part and an optional
// "bucket" field and stores the image in object storage.
func MediaUpload(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, media.MaxUploadBytes+multipartOverhead)
		if err := r.ParseMultipartForm(media.MaxUploadBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file too large"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file is required"))
			return
		}
		defer file.Close()

		out, err := svc.UploadImage(r.Context(), media.UploadInput{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Bucket:      r.FormValue("bucket"),
			Body:        file,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, out)
	}
}
