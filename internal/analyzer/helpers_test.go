package analyzer

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestAnalyzer() Analyzer {
	return New(WithClock(func() time.Time { return fixedNow }))
}

// gradientImage has a sample variance well inside the natural band.
func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x*7 + y*13) % 256),
				G: uint8((x*11 + y*3) % 256),
				B: uint8((x*5 + y*17) % 256),
				A: 0xff,
			})
		}
	}
	return img
}

// flatImage is an opaque image of a single mid-grey colour.
func flatImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{0x80, 0x80, 0x80, 0xff}), image.Point{}, draw.Src)
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

// pngChunk builds a length-prefixed PNG chunk with a valid CRC.
func pngChunk(typ string, body []byte) []byte {
	out := make([]byte, 8, 12+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(len(body)))
	copy(out[4:8], typ)
	out = append(out, body...)
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(body)
	return binary.BigEndian.AppendUint32(out, crc.Sum32())
}

// insertAfterIHDR splices extra chunks right after the IHDR chunk.
func insertAfterIHDR(t *testing.T, encoded []byte, chunks ...[]byte) []byte {
	t.Helper()
	require.True(t, len(encoded) > 33, "png too short")
	const ihdrEnd = 8 + 8 + 13 + 4
	out := append([]byte(nil), encoded[:ihdrEnd]...)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return append(out, encoded[ihdrEnd:]...)
}

// tiffBlob is a big-endian TIFF header with one empty IFD followed by
// arbitrary text, the shape of a raw EXIF block as far as the substring
// heuristics care.
func tiffBlob(text string) []byte {
	blob := []byte{
		'M', 'M', 0x00, 0x2A, // byte order, magic
		0x00, 0x00, 0x00, 0x08, // IFD0 offset
		0x00, 0x00, // entry count
		0x00, 0x00, 0x00, 0x00, // next IFD
	}
	return append(blob, text...)
}

// jpegWithAPP1 inserts an Exif APP1 segment carrying blob after the SOI marker.
func jpegWithAPP1(t *testing.T, encoded []byte, blob []byte) []byte {
	t.Helper()
	payload := append([]byte("Exif\x00\x00"), blob...)
	seg := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(seg[2:4], uint16(len(payload)+2))
	seg = append(seg, payload...)

	out := append([]byte(nil), encoded[:2]...)
	out = append(out, seg...)
	return append(out, encoded[2:]...)
}

// tiffBlobWithOrientation carries a single IFD0 Orientation (0x0112) entry.
func tiffBlobWithOrientation(orientation uint16, text string) []byte {
	blob := []byte{
		'M', 'M', 0x00, 0x2A,
		0x00, 0x00, 0x00, 0x08,
		0x00, 0x01,
		0x01, 0x12, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01, byte(orientation >> 8), byte(orientation), 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	return append(blob, text...)
}

// jpegWithJFIF inserts an APP0 JFIF segment declaring dpi dots per inch.
func jpegWithJFIF(encoded []byte, dpi uint16) []byte {
	seg := []byte{
		0xFF, 0xE0, 0x00, 0x10,
		'J', 'F', 'I', 'F', 0x00,
		0x01, 0x01,
		0x01,
		byte(dpi >> 8), byte(dpi),
		byte(dpi >> 8), byte(dpi),
		0x00, 0x00,
	}
	out := append([]byte(nil), encoded[:2]...)
	out = append(out, seg...)
	return append(out, encoded[2:]...)
}
