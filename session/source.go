package session

import (
	"fmt"

	"gocv.io/x/gocv"
)

// FrameSource yields frames until exhausted. Video files and camera devices
// share this shape; the single-image path decodes directly instead.
type FrameSource interface {
	// Read fills frame with the next image, reporting false at end of
	// stream or on a read failure.
	Read(frame *gocv.Mat) bool
	Close() error
}

type captureSource struct {
	capture *gocv.VideoCapture
}

// openVideoFile opens a video file as a frame source.
func openVideoFile(path string) (FrameSource, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open video from %s: %w", path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("unable to open video from %s", path)
	}
	return &captureSource{capture: capture}, nil
}

// openCameraDevice opens a camera by device index as a frame source.
func openCameraDevice(device int) (FrameSource, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("unable to access webcam device %d: %w", device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("unable to access webcam device %d", device)
	}
	return &captureSource{capture: capture}, nil
}

func (c *captureSource) Read(frame *gocv.Mat) bool {
	return c.capture.Read(frame)
}

func (c *captureSource) Close() error {
	return c.capture.Close()
}
