package request

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jpegMagic = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

func newUpload(t *testing.T, field string, files map[string][]byte, ctype string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, data := range files {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+name+`"`)
		hdr.Set("Content-Type", ctype)
		w, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestReadImages(t *testing.T) {
	limits := UploadLimits{MaxFileSize: 1024, MaxFiles: 2}

	req := newUpload(t, "images", map[string][]byte{"a.jpg": jpegMagic}, "application/octet-stream")
	inputs, err := ReadImages(httptest.NewRecorder(), req, "images", limits)
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "a.jpg", inputs[0].Filename)
	assert.Equal(t, jpegMagic, inputs[0].Data)
}

func TestReadImages_Errors(t *testing.T) {
	limits := UploadLimits{MaxFileSize: 16, MaxFiles: 1}

	tests := []struct {
		name  string
		field string
		files map[string][]byte
		ctype string
		want  error
	}{
		{"wrong field", "other", map[string][]byte{"a.jpg": jpegMagic}, "image/jpeg", ErrNoFiles},
		{"too many", "images", map[string][]byte{"a.jpg": jpegMagic, "b.jpg": jpegMagic}, "image/jpeg", ErrTooManyFiles},
		{"too large", "images", map[string][]byte{"a.jpg": bytes.Repeat(jpegMagic, 4)}, "image/jpeg", ErrFileTooLarge},
		{"not an image", "images", map[string][]byte{"a.txt": []byte("plain text")}, "text/plain", ErrUnsupportedType},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := newUpload(t, tc.field, tc.files, tc.ctype)
			_, err := ReadImages(httptest.NewRecorder(), req, "images", limits)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestReadImages_MalformedForm(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewBufferString(`{"image":"x"}`))
	req.Header.Set("Content-Type", "application/json")

	_, err := ReadImages(httptest.NewRecorder(), req, "images", UploadLimits{MaxFileSize: 16, MaxFiles: 1})
	assert.ErrorIs(t, err, ErrMalformedForm)
}

func TestAllowed_FallsBackToDeclaredType(t *testing.T) {
	tiff := []byte{'I', 'I', 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00}

	assert.True(t, allowed(tiff, "image/tiff"))
	assert.True(t, allowed(tiff, "IMAGE/TIFF; charset=binary"))
	assert.False(t, allowed([]byte("hello"), "text/plain"))
	assert.True(t, allowed(jpegMagic, ""))
}
