package request

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/pmajay/image-verifier/internal/entity"
)

var (
	ErrNoFiles         = errors.New("no image uploaded")
	ErrTooManyFiles    = errors.New("too many images uploaded")
	ErrFileTooLarge    = errors.New("image exceeds the size limit")
	ErrUnsupportedType = errors.New("only image files are allowed")
	ErrMalformedForm   = errors.New("malformed multipart form")
)

// AllowedTypes is the MIME allow-list for uploads.
var AllowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
}

// UploadLimits bounds a multipart upload.
type UploadLimits struct {
	MaxFileSize int64
	MaxFiles    int
}

// ReadImages parses the multipart form and returns every file under field as
// an ImageInput.
func ReadImages(w http.ResponseWriter, r *http.Request, field string, limits UploadLimits) ([]entity.ImageInput, error) {
	maxFiles := max(limits.MaxFiles, 1)
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFileSize*int64(maxFiles)+1<<20)
	if err := r.ParseMultipartForm(limits.MaxFileSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, ErrFileTooLarge
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedForm, err)
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, ErrNoFiles
	}
	if len(headers) > maxFiles {
		return nil, fmt.Errorf("%w: maximum %d", ErrTooManyFiles, maxFiles)
	}

	inputs := make([]entity.ImageInput, 0, len(headers))
	for _, fh := range headers {
		in, err := readFile(fh, limits.MaxFileSize)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func readFile(fh *multipart.FileHeader, maxSize int64) (entity.ImageInput, error) {
	if fh.Size > maxSize {
		return entity.ImageInput{}, fmt.Errorf("%w: %s", ErrFileTooLarge, fh.Filename)
	}

	f, err := fh.Open()
	if err != nil {
		return entity.ImageInput{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return entity.ImageInput{}, err
	}
	if int64(len(data)) > maxSize {
		return entity.ImageInput{}, fmt.Errorf("%w: %s", ErrFileTooLarge, fh.Filename)
	}

	if !allowed(data, fh.Header.Get("Content-Type")) {
		return entity.ImageInput{}, fmt.Errorf("%w: %s", ErrUnsupportedType, fh.Filename)
	}

	return entity.ImageInput{Data: data, Filename: fh.Filename}, nil
}

// allowed sniffs the content first and falls back to the declared type, which
// covers formats DetectContentType does not know such as TIFF.
func allowed(data []byte, declared string) bool {
	if AllowedTypes[http.DetectContentType(data)] {
		return true
	}
	mediaType, _, _ := strings.Cut(strings.ToLower(declared), ";")
	return AllowedTypes[strings.TrimSpace(mediaType)]
}
