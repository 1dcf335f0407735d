package session

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"firewatch/config"
	"firewatch/detection"
	"firewatch/overlay"
	"firewatch/paths"
)

// fakeDetector reports a fixed number of boxes per frame number (1-based).
type fakeDetector struct {
	boxesPerFrame map[int]int
	err           error
	calls         int
}

func (d *fakeDetector) Detect(frame gocv.Mat) (*detection.Result, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	res := &detection.Result{}
	for i := 0; i < d.boxesPerFrame[d.calls]; i++ {
		res.Detections = append(res.Detections, detection.Detection{
			Rect:       image.Rect(10+i*20, 10, 25+i*20, 25),
			Class:      "fire",
			Confidence: 0.9,
		})
	}
	return res, nil
}

type fakeAlarm struct {
	calls int
	err   error
}

func (a *fakeAlarm) Play() error {
	a.calls++
	return a.err
}

// fakeDisplay records shown frames and feeds escape after a configurable
// number of polls.
type fakeDisplay struct {
	shown       int
	barColors   [][3]uint8
	polls       int
	escapeAfter int
	closed      bool
}

func (d *fakeDisplay) Show(img gocv.Mat) {
	d.shown++
	// Sample the bottom edge of the appended status bar; the centered text
	// never reaches it.
	v := img.GetVecbAt(img.Rows()-3, 1)
	d.barColors = append(d.barColors, [3]uint8{v[0], v[1], v[2]})
}

func (d *fakeDisplay) Poll(int) int {
	d.polls++
	if d.polls >= d.escapeAfter {
		return escapeKey
	}
	return -1
}

func (d *fakeDisplay) Close() error {
	d.closed = true
	return nil
}

// fakeSource serves copies of a prototype frame a fixed number of times.
type fakeSource struct {
	frames int
	served int
	proto  gocv.Mat
	closed bool
}

func (s *fakeSource) Read(m *gocv.Mat) bool {
	if s.served >= s.frames {
		return false
	}
	s.served++
	s.proto.CopyTo(m)
	return true
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

var (
	greenBar = [3]uint8{0, 255, 0} // BGR
	redBar   = [3]uint8{0, 0, 255}
)

type harness struct {
	sess           *Session
	display        *fakeDisplay
	alarm          *fakeAlarm
	displaysOpened int
}

func newHarness(t *testing.T, det *fakeDetector, escapeAfter int) *harness {
	t.Helper()

	proto := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { proto.Close() })

	h := &harness{
		display: &fakeDisplay{escapeAfter: escapeAfter},
		alarm:   &fakeAlarm{},
	}
	cfg := &config.Config{WindowWidth: 1280, WindowHeight: 720}
	h.sess = New(det, overlay.NewRenderer(), h.alarm, cfg, zap.NewNop().Sugar())
	h.sess.openDisplay = func() (Display, error) {
		h.displaysOpened++
		return h.display, nil
	}
	h.sess.readImage = func(string) gocv.Mat {
		m := gocv.NewMat()
		proto.CopyTo(&m)
		return m
	}
	return h
}

func existingFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("placeholder"), 0o644))
	return path
}

func TestRunImageNoDetections(t *testing.T) {
	det := &fakeDetector{boxesPerFrame: map[int]int{}}
	h := newHarness(t, det, 1)

	err := h.sess.RunImage(existingFile(t, "clear.jpg"))
	require.NoError(t, err)

	assert.Equal(t, 1, h.display.shown)
	assert.Equal(t, greenBar, h.display.barColors[0])
	assert.Zero(t, h.alarm.calls)
	assert.True(t, h.display.closed)
}

func TestRunImageWithDetections(t *testing.T) {
	det := &fakeDetector{boxesPerFrame: map[int]int{1: 2}}
	h := newHarness(t, det, 1)

	err := h.sess.RunImage(existingFile(t, "burning.jpg"))
	require.NoError(t, err)

	assert.Equal(t, 1, h.display.shown)
	assert.Equal(t, redBar, h.display.barColors[0])
	assert.Equal(t, 1, h.alarm.calls, "one alarm per alerting frame")
}

func TestRunImageWaitsForEscape(t *testing.T) {
	det := &fakeDetector{boxesPerFrame: map[int]int{}}
	h := newHarness(t, det, 5)

	require.NoError(t, h.sess.RunImage(existingFile(t, "clear.jpg")))
	assert.Equal(t, 5, h.display.polls)
}

func TestRunImageUndecodableImage(t *testing.T) {
	det := &fakeDetector{boxesPerFrame: map[int]int{}}
	h := newHarness(t, det, 1)
	h.sess.readImage = func(string) gocv.Mat { return gocv.NewMat() }

	err := h.sess.RunImage(existingFile(t, "corrupt.jpg"))
	require.Error(t, err)
	assert.Zero(t, h.displaysOpened, "no window for an unreadable image")
	assert.Zero(t, det.calls)
}

func TestRunVideoMissingPath(t *testing.T) {
	det := &fakeDetector{boxesPerFrame: map[int]int{}}
	h := newHarness(t, det, 1)
	videoOpened := false
	h.sess.openVideo = func(string) (FrameSource, error) {
		videoOpened = true
		return nil, errors.New("unexpected")
	}

	err := h.sess.RunVideo(filepath.Join(t.TempDir(), "missing.mp4"))
	assert.ErrorIs(t, err, paths.ErrNotFound)
	assert.False(t, videoOpened)
	assert.Zero(t, h.displaysOpened, "no window for a missing file")
}

func TestRunVideoAlarmsOncePerDetectingFrame(t *testing.T) {
	det := &fakeDetector{boxesPerFrame: map[int]int{3: 1, 7: 2}}
	h := newHarness(t, det, 1000)

	proto := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { proto.Close() })
	src := &fakeSource{frames: 10, proto: proto}
	h.sess.openVideo = func(string) (FrameSource, error) { return src, nil }

	err := h.sess.RunVideo(existingFile(t, "footage.mp4"))
	require.NoError(t, err)

	assert.Equal(t, 10, h.display.shown)
	assert.Equal(t, 10, det.calls)
	assert.Equal(t, 2, h.alarm.calls, "alarm fires exactly on frames 3 and 7")
	for i, color := range h.display.barColors {
		frame := i + 1
		if frame == 3 || frame == 7 {
			assert.Equal(t, redBar, color, "frame %d", frame)
		} else {
			assert.Equal(t, greenBar, color, "frame %d", frame)
		}
	}
	assert.True(t, src.closed)
	assert.True(t, h.display.closed)
}

func TestRunVideoEscapeStopsLoop(t *testing.T) {
	det := &fakeDetector{boxesPerFrame: map[int]int{}}
	h := newHarness(t, det, 3)

	proto := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { proto.Close() })
	src := &fakeSource{frames: 10, proto: proto}
	h.sess.openVideo = func(string) (FrameSource, error) { return src, nil }

	require.NoError(t, h.sess.RunVideo(existingFile(t, "footage.mp4")))
	assert.Equal(t, 3, h.display.shown)
	assert.True(t, src.closed, "capture released on user exit")
}

func TestRunVideoDetectorErrorReleasesResources(t *testing.T) {
	det := &fakeDetector{err: errors.New("inference blew up")}
	h := newHarness(t, det, 1000)

	proto := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { proto.Close() })
	src := &fakeSource{frames: 5, proto: proto}
	h.sess.openVideo = func(string) (FrameSource, error) { return src, nil }

	err := h.sess.RunVideo(existingFile(t, "footage.mp4"))
	require.Error(t, err)
	assert.True(t, src.closed)
	assert.True(t, h.display.closed)
}

func TestRunWebcam(t *testing.T) {
	det := &fakeDetector{boxesPerFrame: map[int]int{}}
	h := newHarness(t, det, 1000)
	h.sess.device = 2

	proto := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { proto.Close() })
	src := &fakeSource{frames: 2, proto: proto}
	openedDevice := -1
	h.sess.openCamera = func(device int) (FrameSource, error) {
		openedDevice = device
		return src, nil
	}

	require.NoError(t, h.sess.RunWebcam())
	assert.Equal(t, 2, openedDevice)
	assert.Equal(t, 2, h.display.shown)
	assert.Zero(t, h.alarm.calls)
}

func TestRunWebcamOpenFailure(t *testing.T) {
	det := &fakeDetector{boxesPerFrame: map[int]int{}}
	h := newHarness(t, det, 1)
	h.sess.openCamera = func(int) (FrameSource, error) {
		return nil, errors.New("unable to access webcam device 0")
	}

	err := h.sess.RunWebcam()
	require.Error(t, err)
	assert.Zero(t, h.displaysOpened)
}

func TestAlarmFailureDoesNotAbortLoop(t *testing.T) {
	det := &fakeDetector{boxesPerFrame: map[int]int{1: 1, 2: 1}}
	h := newHarness(t, det, 1000)
	h.alarm.err = errors.New("no audio device")

	proto := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { proto.Close() })
	src := &fakeSource{frames: 2, proto: proto}
	h.sess.openVideo = func(string) (FrameSource, error) { return src, nil }

	require.NoError(t, h.sess.RunVideo(existingFile(t, "footage.mp4")))
	assert.Equal(t, 2, h.alarm.calls)
	assert.Equal(t, 2, h.display.shown)
}

func TestInfoText(t *testing.T) {
	assert.Equal(t, "File: clip.mp4\nPress 'ESC' to exit",
		imageInfo(filepath.Join("some", "dir", "clip.mp4")))

	for frame := 1; frame <= 10; frame++ {
		want := fmt.Sprintf("File: clip.mp4\nFrame: %d\nPress 'ESC' to exit", frame)
		assert.Equal(t, want, videoInfo(filepath.Join("dir", "clip.mp4"), frame))
	}

	assert.Equal(t, "Webcam Feed\nFrame: 4\nPress 'ESC' to exit", webcamInfo(4))
}
