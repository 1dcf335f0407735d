// Package overlay renders everything drawn on top of a frame before display:
// detection boxes with labels, the multi-line info block in the top-left
// corner, and the status bar appended below the frame.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"gocv.io/x/gocv"

	"firewatch/detection"
)

// Status bar texts shown under every frame.
const (
	StatusAlert  = "FIRE/SMOKE DETECTED!"
	StatusNormal = "No Fire Detected"
)

// statusBarHeight is the fixed height of the bar appended below the frame.
const statusBarHeight = 60

// infoOverlay layout: left padding and per-line vertical step.
const (
	infoPadding    = 10
	infoFirstLineY = 30
	infoLineHeight = 25
)

// Renderer draws annotations onto frames. All colors are fixed at
// construction; the drawing operations themselves hold no state.
type Renderer struct {
	boxColor    color.RGBA
	alertBar    color.RGBA
	normalBar   color.RGBA
	alertText   color.RGBA
	normalText  color.RGBA
	infoFill    color.RGBA
	infoOutline color.RGBA
}

// NewRenderer returns a renderer with the standard palette: orange detection
// boxes, red/green status bars, dark info text with a light outline.
func NewRenderer() *Renderer {
	return &Renderer{
		boxColor:    color.RGBA{R: 255, G: 140, B: 0, A: 0},
		alertBar:    color.RGBA{R: 255, G: 0, B: 0, A: 0},
		normalBar:   color.RGBA{R: 0, G: 255, B: 0, A: 0},
		alertText:   color.RGBA{R: 255, G: 255, B: 255, A: 0},
		normalText:  color.RGBA{R: 0, G: 0, B: 0, A: 0},
		infoFill:    color.RGBA{R: 0, G: 0, B: 0, A: 0},
		infoOutline: color.RGBA{R: 255, G: 255, B: 255, A: 0},
	}
}

// DrawDetections draws one labeled rectangle per detection onto the frame.
func (r *Renderer) DrawDetections(img *gocv.Mat, res *detection.Result) {
	if res == nil {
		return
	}
	for _, det := range res.Detections {
		gocv.Rectangle(img, det.Rect, r.boxColor, 2)

		label := fmt.Sprintf("%s %.0f%%", det.Class, det.Confidence*100)
		labelY := det.Rect.Min.Y - 6
		if labelY < 12 {
			labelY = det.Rect.Min.Y + 16
		}
		labelPos := image.Pt(det.Rect.Min.X, labelY)
		gocv.PutText(img, label, labelPos, gocv.FontHersheySimplex, 0.5, r.boxColor, 1)
	}
}

// AddStatusBar returns a new image with a fixed-height colored bar appended
// below the frame: red with white text when alert, green with black text
// otherwise. The text is horizontally centered from its measured width. The
// input Mat is not modified and remains owned by the caller.
func (r *Renderer) AddStatusBar(img gocv.Mat, text string, alert bool) gocv.Mat {
	barColor, textColor := r.normalBar, r.normalText
	if alert {
		barColor, textColor = r.alertBar, r.alertText
	}

	bar := gocv.NewMatWithSize(statusBarHeight, img.Cols(), gocv.MatTypeCV8UC3)
	defer bar.Close()
	bar.SetTo(gocv.NewScalar(float64(barColor.B), float64(barColor.G), float64(barColor.R), 0))

	textSize := gocv.GetTextSize(text, gocv.FontHersheySimplex, 1, 2)
	origin := statusTextOrigin(img.Cols(), textSize.X, textSize.Y)
	gocv.PutText(&bar, text, origin, gocv.FontHersheySimplex, 1, textColor, 2)

	out := gocv.NewMat()
	gocv.Vconcat(img, bar, &out)
	return out
}

// statusTextOrigin centers the measured text inside the status bar:
// horizontally across the full bar width, vertically within its fixed height.
func statusTextOrigin(barWidth, textWidth, textHeight int) image.Point {
	return image.Pt((barWidth-textWidth)/2, (statusBarHeight+textHeight)/2)
}

// AddInfoOverlay draws a newline-delimited block of text in the top-left
// corner. Each line is drawn twice, a thicker light stroke under a dark fill,
// so it stays readable on any background.
func (r *Renderer) AddInfoOverlay(img *gocv.Mat, info string) {
	for i, line := range strings.Split(info, "\n") {
		pos := image.Pt(infoPadding, infoFirstLineY+i*infoLineHeight)
		gocv.PutText(img, line, pos, gocv.FontHersheySimplex, 0.6, r.infoOutline, 2)
		gocv.PutText(img, line, pos, gocv.FontHersheySimplex, 0.6, r.infoFill, 1)
	}
}

// StatusText maps the alert flag to the bar text.
func StatusText(alert bool) string {
	if alert {
		return StatusAlert
	}
	return StatusNormal
}
