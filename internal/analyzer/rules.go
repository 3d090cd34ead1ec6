package analyzer

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pmajay/image-verifier/internal/entity"
)

const (
	minWidth  = 640
	minHeight = 480
)

// screenResolutions are common desktop and phone screen sizes. Matching is
// done in both orientations.
var screenResolutions = [][2]int{
	{1920, 1080}, {1366, 768}, {1536, 864}, {1440, 900}, {1280, 720},
	{1280, 800}, {1600, 900}, {1680, 1050}, {2560, 1440}, {2560, 1600},
	{3840, 2160}, {2880, 1800}, {750, 1334}, {828, 1792}, {1125, 2436},
	{1170, 2532}, {1179, 2556}, {1242, 2688}, {1284, 2778}, {1080, 2400},
	{1440, 3200},
}

var screenshotFilenameTokens = []string{"screenshot", "screen", "capture", "snap"}

// delta is a fixed adjustment to the three running scores.
type delta struct {
	authenticity int
	aiGeneration int
	manipulation int
}

type ruleInput struct {
	meta     entity.Metadata
	pixels   entity.PixelStats
	filename string
	now      time.Time
	maxAge   time.Duration
}

// Keys of AnalysisResult.DetectionDetails.
const (
	detailCamera           = "hasCameraMetadata"
	detailGPS              = "hasGPS"
	detailScreenResolution = "screenResolution"
	detailLowResolution    = "lowResolution"
	detailPixels           = "suspiciousPixels"
	detailScreenshot       = "isScreenshot"
	detailOldPhoto         = "isOldPhoto"
)

// detectionKeys lists every key evaluate reports.
var detectionKeys = []string{
	detailCamera, detailGPS, detailScreenResolution, detailLowResolution,
	detailPixels, detailScreenshot, detailOldPhoto,
}

// rule is one independent heuristic check. detail, when set, is the
// DetectionDetails key that mirrors the rule's outcome; rules without one
// report through describe instead.
type rule struct {
	detail    string
	describe  func(in ruleInput, details map[string]bool)
	check     func(in ruleInput) entity.Signal
	triggered delta
	passed    delta
}

// rules run in this order, always all of them.
var rules = []rule{
	{
		describe: func(in ruleInput, d map[string]bool) {
			d[detailCamera] = in.meta.HasCamera
		},
		check:     checkCamera,
		triggered: delta{-25, 20, 15},
		passed:    delta{30, -25, -10},
	},
	{
		describe: func(in ruleInput, d map[string]bool) {
			d[detailGPS] = in.meta.GPS
		},
		check:     checkGPS,
		triggered: delta{-15, 0, 10},
		passed:    delta{25, 0, -15},
	},
	{
		describe: func(in ruleInput, d map[string]bool) {
			d[detailScreenResolution] = isScreenResolution(in.meta.Width, in.meta.Height)
			d[detailLowResolution] = isLowResolution(in.meta.Width, in.meta.Height)
		},
		check:     checkDimensions,
		triggered: delta{-20, 0, 20},
		passed:    delta{15, 0, -10},
	},
	{
		detail:    detailPixels,
		check:     checkPixelPattern,
		triggered: delta{-25, 30, 15},
		passed:    delta{20, -20, 0},
	},
	{
		detail:    detailScreenshot,
		check:     checkScreenshot,
		triggered: delta{-30, 0, 25},
		passed:    delta{15, 0, -15},
	},
	{
		detail:    detailOldPhoto,
		check:     checkTimestamp,
		triggered: delta{-10, 0, 5},
		passed:    delta{10, 0, 0},
	},
}

func checkCamera(in ruleInput) entity.Signal {
	if in.meta.HasCamera {
		return entity.Signal{}
	}
	return entity.Signal{
		Triggered: true,
		Reason:    "No camera metadata found - image may be AI-generated or edited",
	}
}

func checkGPS(in ruleInput) entity.Signal {
	if in.meta.GPS {
		return entity.Signal{}
	}
	return entity.Signal{
		Triggered: true,
		Reason:    "No GPS location data - cannot verify where the photo was taken",
	}
}

func checkDimensions(in ruleInput) entity.Signal {
	w, h := in.meta.Width, in.meta.Height
	if isScreenResolution(w, h) {
		return entity.Signal{
			Triggered: true,
			Reason:    fmt.Sprintf("Image resolution %dx%d matches a common screen size - possible screenshot", w, h),
		}
	}
	if isLowResolution(w, h) {
		return entity.Signal{
			Triggered: true,
			Reason:    fmt.Sprintf("Low resolution image (%dx%d) - may be compressed or edited", w, h),
		}
	}
	return entity.Signal{}
}

func isScreenResolution(w, h int) bool {
	for _, r := range screenResolutions {
		if (w == r[0] && h == r[1]) || (w == r[1] && h == r[0]) {
			return true
		}
	}
	return false
}

func isLowResolution(w, h int) bool {
	return w < minWidth || h < minHeight
}

func checkPixelPattern(in ruleInput) entity.Signal {
	if !in.pixels.SuspiciousPatterns {
		return entity.Signal{}
	}
	return entity.Signal{
		Triggered: true,
		Reason:    "Detected unusual pixel patterns - possible AI generation",
	}
}

func checkScreenshot(in ruleInput) entity.Signal {
	name := strings.ToLower(in.filename)
	for _, token := range screenshotFilenameTokens {
		if strings.Contains(name, token) {
			return screenshotSignal()
		}
	}
	if in.meta.Format == "png" && !in.meta.HasCamera {
		return screenshotSignal()
	}
	return entity.Signal{}
}

func screenshotSignal() entity.Signal {
	return entity.Signal{Triggered: true, Reason: "Image appears to be a screenshot"}
}

// checkTimestamp only triggers on a known capture date older than maxAge.
// A missing date counts as fresh.
func checkTimestamp(in ruleInput) entity.Signal {
	if in.meta.DateTaken == nil {
		return entity.Signal{}
	}
	age := in.now.Sub(*in.meta.DateTaken)
	if age <= in.maxAge {
		return entity.Signal{}
	}
	days := int(math.Floor(age.Hours() / 24))
	return entity.Signal{
		Triggered: true,
		Reason:    fmt.Sprintf("Photo is %d days old - may not reflect current site conditions", days),
	}
}
