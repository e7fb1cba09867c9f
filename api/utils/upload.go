package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"BillTrackerSaas/api/constants"
	"BillTrackerSaas/internal/config"
)

var (
	ErrNoFile            = errors.New(constants.ErrNoFileUploaded)
	ErrFileTooLarge      = errors.New(constants.ErrFileTooLarge)
	ErrUnsupportedUpload = errors.New(constants.ErrUnsupportedFormat)
)

// Upload is a request file spooled to the scratch directory.
type Upload struct {
	Path     string
	FileName string
	Ext      string
	Size     int64
}

// Remove deletes the scratch copy.
func (u *Upload) Remove() {
	if u != nil && u.Path != "" {
		_ = os.Remove(u.Path)
	}
}

// LimitBody caps the request body at the upload limit plus form overhead.
func LimitBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadBytes+(1<<20))
}

// ParseUploadForm parses the multipart body once; later calls are no-ops.
func ParseUploadForm(w http.ResponseWriter, r *http.Request) error {
	if r.MultipartForm != nil {
		return nil
	}
	LimitBody(w, r)
	if err := r.ParseMultipartForm(config.MultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrFileTooLarge
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return ErrNoFile
		}
		return fmt.Errorf("parse multipart form: %w", err)
	}
	return nil
}

// firstFile prefers the "file" field and falls back to any uploaded file.
func firstFile(form *multipart.Form) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	if files := form.File[constants.KeyFile]; len(files) > 0 {
		return files[0]
	}
	for _, files := range form.File {
		if len(files) > 0 {
			return files[0]
		}
	}
	return nil
}

// Ext returns the lowercased extension of name without the dot.
func Ext(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// SaveUpload copies the request file into dir. Callers must Remove the
// result. allowed lists the accepted extensions.
func SaveUpload(w http.ResponseWriter, r *http.Request, dir string, allowed []string) (*Upload, error) {
	if err := ParseUploadForm(w, r); err != nil {
		return nil, err
	}
	fh := firstFile(r.MultipartForm)
	if fh == nil {
		return nil, ErrNoFile
	}
	if fh.Size > config.MaxUploadBytes {
		return nil, ErrFileTooLarge
	}
	ext := Ext(fh.Filename)
	if !contains(allowed, ext) {
		return nil, ErrUnsupportedUpload
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	dst, err := os.CreateTemp(dir, config.UploadFilePrefix+"*."+ext)
	if err != nil {
		return nil, fmt.Errorf("create scratch file: %w", err)
	}
	up := &Upload{Path: dst.Name(), FileName: filepath.Base(fh.Filename), Ext: ext}
	n, err := io.Copy(dst, io.LimitReader(src, config.MaxUploadBytes+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		up.Remove()
		return nil, fmt.Errorf("write scratch file: %w", err)
	}
	if n > config.MaxUploadBytes {
		up.Remove()
		return nil, ErrFileTooLarge
	}
	up.Size = n
	return up, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
