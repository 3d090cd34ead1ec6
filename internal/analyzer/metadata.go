package analyzer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"

	// Registered decoders for image.DecodeConfig / image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/rwcarlsen/goexif/exif"
	"go.uber.org/zap"

	"github.com/pmajay/image-verifier/internal/entity"
)

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// ExtractMetadata decodes the container header of data. Any decode failure is
// logged and yields empty metadata; the caller never sees an error.
func (a Analyzer) ExtractMetadata(data []byte) entity.Metadata {
	meta, err := extractMetadata(data)
	if err != nil {
		a.log().Debug("metadata extraction failed", zap.Int("size", len(data)), zap.Error(err))
		return entity.Metadata{}
	}

	hints := ParseEXIF(meta.RawEXIF)
	meta.HasCamera = hints.HasCamera
	meta.GPS = hints.GPS
	meta.DateTaken = hints.DateTaken
	return meta
}

func extractMetadata(data []byte) (entity.Metadata, error) {
	if len(data) == 0 {
		return entity.Metadata{}, fmt.Errorf("empty payload")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return entity.Metadata{}, fmt.Errorf("decode image config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return entity.Metadata{}, fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}

	layout := layoutOf(cfg.ColorModel)
	meta := entity.Metadata{
		Format:     format,
		Width:      cfg.Width,
		Height:     cfg.Height,
		ColorSpace: layout.space,
		Channels:   layout.channels,
		BitDepth:   layout.depth,
		HasAlpha:   layout.alpha,
	}

	switch format {
	case "jpeg":
		meta.Density = jfifDensity(data)
		meta.RawEXIF, meta.Orientation = exifBlob(data)
	case "tiff":
		meta.RawEXIF, meta.Orientation = exifBlob(data)
	case "png":
		chunks := scanPNGChunks(data)
		meta.Density = chunks.density
		meta.RawEXIF = chunks.exif
		if len(chunks.exif) > 0 {
			meta.Orientation = orientationOf(chunks.exif)
		}
	}

	return meta, nil
}

// sampleLayout describes how a colour model is laid out as raw samples.
type sampleLayout struct {
	channels int
	alpha    bool
	depth    int
	space    string
}

func layoutOf(m color.Model) sampleLayout {
	if p, ok := m.(color.Palette); ok {
		for _, c := range p {
			if _, _, _, alpha := c.RGBA(); alpha != 0xffff {
				return sampleLayout{channels: 4, alpha: true, depth: 8, space: "srgb"}
			}
		}
		return sampleLayout{channels: 3, depth: 8, space: "srgb"}
	}

	switch m {
	case color.GrayModel:
		return sampleLayout{channels: 1, depth: 8, space: "b-w"}
	case color.Gray16Model:
		return sampleLayout{channels: 1, depth: 16, space: "b-w"}
	case color.CMYKModel:
		return sampleLayout{channels: 4, depth: 8, space: "cmyk"}
	case color.NRGBAModel, color.NYCbCrAModel, color.AlphaModel:
		return sampleLayout{channels: 4, alpha: true, depth: 8, space: "srgb"}
	case color.NRGBA64Model, color.Alpha16Model:
		return sampleLayout{channels: 4, alpha: true, depth: 16, space: "srgb"}
	case color.RGBA64Model:
		return sampleLayout{channels: 3, depth: 16, space: "srgb"}
	default:
		return sampleLayout{channels: 3, depth: 8, space: "srgb"}
	}
}

// exifBlob returns the raw TIFF-structured EXIF block and the orientation tag.
// goexif hands back a partially decoded value on non-critical errors, in which
// case the raw block is still usable.
func exifBlob(data []byte) ([]byte, int) {
	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil {
		return nil, 0
	}
	if err != nil && exif.IsCriticalError(err) {
		return nil, 0
	}
	return x.Raw, orientationFromExif(x)
}

func orientationOf(raw []byte) int {
	x, err := exif.Decode(bytes.NewReader(raw))
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return 0
	}
	return orientationFromExif(x)
}

func orientationFromExif(x *exif.Exif) int {
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0
	}
	return v
}

// jfifDensity reads the APP0 JFIF density and converts it to dots per inch.
func jfifDensity(data []byte) int {
	for i := 2; i+4 <= len(data); {
		if data[i] != 0xFF {
			return 0
		}
		marker := data[i+1]
		if marker == 0xDA || marker == 0xD9 {
			return 0
		}
		segLen := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if segLen < 2 || i+2+segLen > len(data) {
			return 0
		}
		seg := data[i+4 : i+2+segLen]
		if marker == 0xE0 && len(seg) >= 12 && string(seg[:5]) == "JFIF\x00" {
			units := seg[7]
			xDensity := int(binary.BigEndian.Uint16(seg[8:10]))
			switch units {
			case 1:
				return xDensity
			case 2:
				return int(math.Round(float64(xDensity) * 2.54))
			default:
				return 0
			}
		}
		i += 2 + segLen
	}
	return 0
}

type pngChunks struct {
	density int
	exif    []byte
}

// scanPNGChunks walks the chunk list for pHYs and eXIf.
func scanPNGChunks(data []byte) pngChunks {
	var out pngChunks
	if len(data) < 8 || !bytes.Equal(data[:8], pngSignature) {
		return out
	}

	for i := 8; i+8 <= len(data); {
		chunkLen := int(binary.BigEndian.Uint32(data[i : i+4]))
		chunkType := string(data[i+4 : i+8])
		start := i + 8
		end := start + chunkLen
		if chunkLen < 0 || end > len(data) {
			break
		}
		body := data[start:end]

		switch chunkType {
		case "pHYs":
			if len(body) == 9 && body[8] == 1 {
				ppm := binary.BigEndian.Uint32(body[0:4])
				out.density = int(math.Round(float64(ppm) * 0.0254))
			}
		case "eXIf":
			out.exif = append([]byte(nil), body...)
		case "IDAT", "IEND":
			// Metadata chunks are required to precede image data.
			return out
		}

		i = end + 4 // CRC
	}
	return out
}
