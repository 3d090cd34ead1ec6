package analyzer

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
)

// cameraVendors are matched case-sensitively against the raw EXIF text.
var cameraVendors = []string{"Canon", "Nikon", "Sony", "Samsung", "Apple", "Google"}

var exifDatePattern = regexp.MustCompile(`\d{4}:\d{2}:\d{2} \d{2}:\d{2}:\d{2}`)

const exifDateLayout = "2006:01:02 15:04:05"

// ExifHints are the signals derived from a raw EXIF block. Absent means
// unknown; callers treat unknown as false.
type ExifHints struct {
	HasCamera bool
	GPS       bool
	DateTaken *time.Time
}

// ParseEXIF scans the raw EXIF block for vendor names, a GPS marker and the
// first capture timestamp. It does not walk the tag table.
func ParseEXIF(blob []byte) (hints ExifHints) {
	if len(blob) == 0 {
		return ExifHints{}
	}
	defer func() {
		if recover() != nil {
			hints = ExifHints{}
		}
	}()

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(blob)
	if err != nil {
		return ExifHints{}
	}
	text := string(decoded)

	for _, vendor := range cameraVendors {
		if strings.Contains(text, vendor) {
			hints.HasCamera = true
			break
		}
	}

	if strings.Contains(text, "GPS") {
		hints.GPS = true
	}

	if match := exifDatePattern.FindString(text); match != "" {
		if taken, err := time.Parse(exifDateLayout, match); err == nil {
			hints.DateTaken = &taken
		}
	}

	return hints
}
