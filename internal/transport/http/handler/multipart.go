package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/taratrabaho/jobboard-api/internal/application/resume"
	"github.com/taratrabaho/jobboard-api/internal/domain"
)

// multipartOverhead is the room left for form fields beside the file.
const multipartOverhead = 1 << 20

var errTooLarge = domain.NewError(domain.ErrBadRequest, "File too large. Maximum size is 5MB.")

// parseMultipart bounds and parses a multipart body.
func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxResumeSize+multipartOverhead)
	if err := r.ParseMultipartForm(domain.MaxResumeSize + multipartOverhead); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return errTooLarge
		}
		return domain.NewError(domain.ErrBadRequest, "Invalid multipart form")
	}
	return nil
}

// formFile reads the named file part. It returns nil when the part is absent.
func formFile(r *http.Request, field string) (*resume.UploadInput, error) {
	f, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewError(domain.ErrBadRequest, "Invalid file upload")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, domain.MaxResumeSize+1))
	if err != nil {
		return nil, err
	}
	return &resume.UploadInput{Filename: header.Filename, Data: data}, nil
}
