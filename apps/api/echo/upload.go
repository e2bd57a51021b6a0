package echoapi

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/flowlearn/pawfessor/core"
	sourcesvc "github.com/flowlearn/pawfessor/services/source"
)

const (
	sourceFormField = "source"
	maxSourceSize   = 10 << 20 // 10MB
)

// readUploadedSource extracts the text of the "source" file of a multipart request.
// ok is false when the request carries no such file.
func readUploadedSource(ctx echo.Context) (text string, ok bool, err error) {
	if !strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return "", false, nil
	}
	fh, err := ctx.FormFile(sourceFormField)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, "getting source file")
	}
	if fh.Size > maxSourceSize {
		return "", false, sourceError("file is too large (max 10MB)")
	}

	src, err := fh.Open()
	if err != nil {
		return "", false, errors.Wrap(err, "opening source file")
	}
	defer src.Close()

	// the parsers pick the format from the extension
	tmp, err := os.CreateTemp("", "source-*"+strings.ToLower(filepath.Ext(fh.Filename)))
	if err != nil {
		return "", false, errors.Wrap(err, "creating temp file")
	}
	defer os.Remove(tmp.Name())

	_, err = io.Copy(tmp, src)
	if cErr := tmp.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		return "", false, errors.Wrap(err, "saving source file")
	}

	text, err = sourcesvc.ReadFile(tmp.Name())
	if err != nil {
		return "", false, sourceError("unreadable document")
	}
	return text, true, nil
}

func sourceError(msg string) error {
	return core.NewValidationError(nil, core.FieldError{Field: sourceFormField, Error: msg})
}
