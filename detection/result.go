package detection

import "image"

// Detection is a single bounding box reported by the model for one frame.
type Detection struct {
	Rect       image.Rectangle
	Class      string
	Confidence float32
}

// Result holds every detection the model produced for one frame. It lives
// for exactly one loop iteration: annotate, decide alert, discard.
type Result struct {
	Detections []Detection
}

// Alert reports whether the frame should trigger the alarm: true iff the
// model emitted at least one box.
func (r *Result) Alert() bool {
	return r != nil && len(r.Detections) > 0
}
