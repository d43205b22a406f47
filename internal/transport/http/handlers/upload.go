package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	mediasvc "github.com/ivankudzin/dochub/internal/services/media"
	httperrors "github.com/ivankudzin/dochub/internal/transport/http/errors"
)

const multipartOverhead = 1 << 20

// readUpload parses a multipart body bounded by limit and returns the named
// file part. The caller closes the file.
func readUpload(w http.ResponseWriter, r *http.Request, field string, limit int64) (multipart.File, *multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(limit + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeTooLarge(w)
			return nil, nil, false
		}
		writeBadRequest(w, "INVALID_MULTIPART", "multipart/form-data body expected")
		return nil, nil, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		writeBadRequest(w, "FILE_REQUIRED", field+" file is required")
		return nil, nil, false
	}
	if header.Size > limit {
		_ = file.Close()
		writeTooLarge(w)
		return nil, nil, false
	}
	return file, header, true
}

func uploadContentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func writeTooLarge(w http.ResponseWriter) {
	httperrors.Write(w, http.StatusRequestEntityTooLarge, httperrors.APIError{
		Code:    "FILE_TOO_LARGE",
		Message: "uploaded file is too large",
	})
}

// writeMediaError maps object storage failures and reports whether err was one.
func writeMediaError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, mediasvc.ErrTooLarge):
		writeTooLarge(w)
	case errors.Is(err, mediasvc.ErrUnsupportedType):
		httperrors.Write(w, http.StatusUnsupportedMediaType, httperrors.APIError{
			Code:    "UNSUPPORTED_MEDIA_TYPE",
			Message: "unsupported file type",
		})
	case errors.Is(err, mediasvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid file")
	default:
		return false
	}
	return true
}
