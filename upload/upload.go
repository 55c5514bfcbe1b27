// Package upload acquires audio from a locally selected or uploaded file.
package upload

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/audio-scribe/encoder"
	"github.com/mrsingh-rishi/audio-scribe/model"
)

// File is a selected file whose declared content type is trusted as-is.
type File interface {
	Name() string
	ContentType() string
	Open() (io.ReadCloser, error)
}

// Acquire reads an audio file into a payload. Files not declared as audio/*
// are rejected with model.ErrValidation.
func Acquire(ctx context.Context, f File) (model.AudioPayload, error) {
	if f == nil {
		return model.AudioPayload{}, errors.Wrap(model.ErrValidation, "no file selected")
	}
	if err := ctx.Err(); err != nil {
		return model.AudioPayload{}, err
	}
	contentType := f.ContentType()
	if !IsAudio(contentType) {
		return model.AudioPayload{}, errors.Wrapf(model.ErrValidation, "%s has content type %q", f.Name(), contentType)
	}

	rc, err := f.Open()
	if err != nil {
		return model.AudioPayload{}, errors.Wrapf(model.ErrIO, "opening %s: %v", f.Name(), err)
	}
	defer rc.Close()

	return encoder.Normalize(rc, contentType, f.Name())
}

// IsAudio reports whether contentType names an audio media type.
func IsAudio(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "audio/")
}

type multipartFile struct {
	header *multipart.FileHeader
}

// FromMultipart wraps a form upload such as the one returned by fiber's FormFile.
func FromMultipart(header *multipart.FileHeader) File {
	return multipartFile{header: header}
}

func (m multipartFile) Name() string        { return m.header.Filename }
func (m multipartFile) ContentType() string { return m.header.Header.Get("Content-Type") }

func (m multipartFile) Open() (io.ReadCloser, error) {
	return m.header.Open()
}

type diskFile struct {
	path        string
	contentType string
}

// audioExtensions covers the common recorder formats the system mime table
// may lack or map to video types.
var audioExtensions = map[string]string{
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".oga":  "audio/ogg",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".wav":  "audio/wav",
	".weba": "audio/webm",
	".webm": "audio/webm",
}

// FromPath wraps a file on disk, declaring its type from the extension.
func FromPath(path string) File {
	ext := strings.ToLower(filepath.Ext(path))
	contentType, ok := audioExtensions[ext]
	if !ok {
		contentType = mime.TypeByExtension(ext)
	}
	return diskFile{path: path, contentType: contentType}
}

func (d diskFile) Name() string        { return filepath.Base(d.path) }
func (d diskFile) ContentType() string { return d.contentType }

func (d diskFile) Open() (io.ReadCloser, error) {
	return os.Open(d.path)
}
