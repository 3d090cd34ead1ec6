package entity

import "time"

// ImageInput is a single uploaded image as handed over by the upload layer.
type ImageInput struct {
	Data     []byte
	Filename string
}

// Metadata holds what could be read from the image container.
// The zero value means the payload could not be decoded.
type Metadata struct {
	Format      string     `json:"format,omitempty"`
	Width       int        `json:"width,omitempty"`
	Height      int        `json:"height,omitempty"`
	ColorSpace  string     `json:"colorSpace,omitempty"`
	Channels    int        `json:"channels,omitempty"`
	BitDepth    int        `json:"bitDepth,omitempty"`
	Density     int        `json:"density,omitempty"`
	HasAlpha    bool       `json:"hasAlpha"`
	Orientation int        `json:"orientation,omitempty"`
	RawEXIF     []byte     `json:"-"`
	HasCamera   bool       `json:"hasCamera"`
	GPS         bool       `json:"gps"`
	DateTaken   *time.Time `json:"dateTaken,omitempty"`
}

// Decoded reports whether the container header could be read at all.
func (m Metadata) Decoded() bool {
	return m.Format != ""
}

// PixelStats is the result of the raw sample analysis.
type PixelStats struct {
	SuspiciousPatterns bool    `json:"suspiciousPatterns"`
	Variance           float64 `json:"variance"`
	Mean               float64 `json:"mean"`
	Samples            int     `json:"samples"`
}

// Signal is the outcome of one rule check.
type Signal struct {
	Triggered bool
	Reason    string
}
