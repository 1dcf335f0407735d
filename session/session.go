// Package session is the control loop tying the pieces together: it pulls
// frames from a source, runs them through the detector, annotates them, and
// decides when the alarm fires. One Session serves the whole process; each
// Run* call owns its capture and window handles and releases them on every
// exit path.
package session

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"firewatch/alarm"
	"firewatch/config"
	"firewatch/detection"
	"firewatch/overlay"
	"firewatch/paths"
)

const (
	windowTitle = "Fire and Smoke Detection System"
	escapeKey   = 27
	pollMillis  = 1
)

// Detector is the inference surface the session needs. *detection.Manager
// satisfies it.
type Detector interface {
	Detect(frame gocv.Mat) (*detection.Result, error)
}

// Session runs the detection modes. The detector is injected once at
// startup and shared read-only across all modes.
type Session struct {
	detector Detector
	renderer *overlay.Renderer
	alarm    alarm.Player
	log      *zap.SugaredLogger

	windowWidth  int
	windowHeight int
	device       int

	// Construction seams so the mode loops can run without OpenCV windows
	// or devices in tests.
	openDisplay func() (Display, error)
	openVideo   func(path string) (FrameSource, error)
	openCamera  func(device int) (FrameSource, error)
	readImage   func(path string) gocv.Mat
}

// New wires a session from its collaborators.
func New(detector Detector, renderer *overlay.Renderer, player alarm.Player, cfg *config.Config, log *zap.SugaredLogger) *Session {
	s := &Session{
		detector:     detector,
		renderer:     renderer,
		alarm:        player,
		log:          log,
		windowWidth:  cfg.WindowWidth,
		windowHeight: cfg.WindowHeight,
		device:       cfg.WebcamDevice,
	}
	s.openDisplay = func() (Display, error) {
		return openWindow(windowTitle, s.windowWidth, s.windowHeight)
	}
	s.openVideo = openVideoFile
	s.openCamera = openCameraDevice
	s.readImage = func(path string) gocv.Mat {
		return gocv.IMRead(path, gocv.IMReadColor)
	}
	return s
}

// RunImage processes a single image: detect once, annotate, display, then
// hold the window until escape is pressed.
func (s *Session) RunImage(rawPath string) error {
	abs, err := s.resolve(rawPath)
	if err != nil {
		return err
	}

	s.log.Infof("loading image from %s", abs)
	img := s.readImage(abs)
	if img.Empty() {
		img.Close()
		return fmt.Errorf("unable to load image from %s", abs)
	}
	defer img.Close()

	res, err := s.detector.Detect(img)
	if err != nil {
		return fmt.Errorf("inference failed: %w", err)
	}

	s.renderer.DrawDetections(&img, res)
	s.renderer.AddInfoOverlay(&img, imageInfo(abs))

	display, err := s.openDisplay()
	if err != nil {
		return fmt.Errorf("could not open display window: %w", err)
	}
	defer display.Close()

	composed := s.compose(img, res)
	defer composed.Close()
	display.Show(composed)

	for display.Poll(pollMillis) != escapeKey {
	}
	return nil
}

// RunVideo processes a video file frame by frame until end of stream or
// escape.
func (s *Session) RunVideo(rawPath string) error {
	abs, err := s.resolve(rawPath)
	if err != nil {
		return err
	}

	src, err := s.openVideo(abs)
	if err != nil {
		return err
	}
	defer src.Close()

	return s.loop(src, func(frame int) string { return videoInfo(abs, frame) })
}

// RunWebcam processes the live camera feed until the device stops producing
// frames or escape is pressed. There is no path to validate.
func (s *Session) RunWebcam() error {
	src, err := s.openCamera(s.device)
	if err != nil {
		return err
	}
	defer src.Close()

	return s.loop(src, webcamInfo)
}

// loop is the shared per-frame pipeline: read, detect, annotate, compose,
// show, poll. Every frame either completes the full pipeline or the mode
// aborts; nothing carries over between iterations.
func (s *Session) loop(src FrameSource, info func(frame int) string) error {
	display, err := s.openDisplay()
	if err != nil {
		return fmt.Errorf("could not open display window: %w", err)
	}
	defer display.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	count := 0
	for {
		if ok := src.Read(&frame); !ok || frame.Empty() {
			break
		}
		count++

		res, err := s.detector.Detect(frame)
		if err != nil {
			return fmt.Errorf("inference failed on frame %d: %w", count, err)
		}

		s.renderer.DrawDetections(&frame, res)
		s.renderer.AddInfoOverlay(&frame, info(count))

		composed := s.compose(frame, res)
		display.Show(composed)
		composed.Close()

		if display.Poll(pollMillis) == escapeKey {
			s.log.Debug("escape pressed, stopping")
			break
		}
	}

	s.log.Infof("processed %d frames", count)
	return nil
}

// compose appends the status bar and, on an alert frame, plays the alarm to
// completion before the frame is shown. The alarm deliberately fires once
// per alerting frame.
func (s *Session) compose(img gocv.Mat, res *detection.Result) gocv.Mat {
	alert := res.Alert()
	composed := s.renderer.AddStatusBar(img, overlay.StatusText(alert), alert)
	if alert {
		s.playAlarm()
	}
	return composed
}

// playAlarm applies the swallow-and-log policy: a broken audio path must not
// interrupt detection.
func (s *Session) playAlarm() {
	if err := s.alarm.Play(); err != nil {
		s.log.Errorf("error playing alarm: %v", err)
	}
}

// resolve validates a user-supplied path, logging the remediation hint for
// the failure kind.
func (s *Session) resolve(raw string) (string, error) {
	abs, err := paths.Resolve(raw)
	if err != nil {
		s.log.Errorf("%v", err)
		if hint := paths.Hint(err); hint != "" {
			s.log.Info(hint)
		}
		return "", err
	}
	s.log.Debugf("resolved path %s", abs)
	return abs, nil
}

func imageInfo(path string) string {
	return fmt.Sprintf("File: %s\nPress 'ESC' to exit", filepath.Base(path))
}

func videoInfo(path string, frame int) string {
	return fmt.Sprintf("File: %s\nFrame: %d\nPress 'ESC' to exit", filepath.Base(path), frame)
}

func webcamInfo(frame int) string {
	return fmt.Sprintf("Webcam Feed\nFrame: %d\nPress 'ESC' to exit", frame)
}
