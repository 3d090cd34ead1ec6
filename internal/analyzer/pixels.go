package analyzer

import (
	"bytes"
	"image"
	"image/color"

	"go.uber.org/zap"

	"github.com/pmajay/image-verifier/internal/entity"
)

// Variance bounds outside of which the sample distribution is considered
// synthetic: too flat below, too extreme above.
const (
	minNaturalVariance = 100
	maxNaturalVariance = 50000
)

// AnalyzePixels decodes data to raw samples and computes mean and population
// variance over every channel sample. Decode failures fail open.
func (a Analyzer) AnalyzePixels(data []byte) entity.PixelStats {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		a.log().Debug("pixel decode failed", zap.Error(err))
		return entity.PixelStats{}
	}
	return pixelStats(img)
}

func pixelStats(img image.Image) entity.PixelStats {
	layout := layoutOf(img.ColorModel())

	var sum float64
	var n int
	forEachSample(img, layout, func(v uint8) {
		sum += float64(v)
		n++
	})
	if n == 0 {
		return entity.PixelStats{}
	}
	mean := sum / float64(n)

	var sq float64
	forEachSample(img, layout, func(v uint8) {
		d := float64(v) - mean
		sq += d * d
	})
	variance := sq / float64(n)

	return entity.PixelStats{
		SuspiciousPatterns: variance < minNaturalVariance || variance > maxNaturalVariance,
		Variance:           variance,
		Mean:               mean,
		Samples:            n,
	}
}

// forEachSample emits one 8-bit value per channel sample, in pixel order.
// Multi-channel images contribute every channel, alpha included.
func forEachSample(img image.Image, layout sampleLayout, fn func(uint8)) {
	b := img.Bounds()

	if gray, ok := img.(*image.Gray); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := gray.Pix[gray.PixOffset(b.Min.X, y):gray.PixOffset(b.Max.X, y)]
			for _, v := range row {
				fn(v)
			}
		}
		return
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.At(x, y)
			switch {
			case layout.space == "cmyk":
				k := color.CMYKModel.Convert(c).(color.CMYK)
				fn(k.C)
				fn(k.M)
				fn(k.Y)
				fn(k.K)
			case layout.channels == 1:
				fn(color.GrayModel.Convert(c).(color.Gray).Y)
			default:
				n := color.NRGBAModel.Convert(c).(color.NRGBA)
				fn(n.R)
				fn(n.G)
				fn(n.B)
				if layout.alpha {
					fn(n.A)
				}
			}
		}
	}
}
