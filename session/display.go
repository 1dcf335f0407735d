package session

import (
	"gocv.io/x/gocv"
)

// Display presents annotated frames and polls the keyboard. It is an
// interface so the mode loops can run headless in tests; the real
// implementation is an OpenCV window.
type Display interface {
	// Show presents one frame.
	Show(img gocv.Mat)
	// Poll waits up to waitMillis for a key press and returns its code,
	// or a negative value when no key was pressed.
	Poll(waitMillis int) int
	Close() error
}

type window struct {
	win *gocv.Window
}

// openWindow creates the resizable display window at its initial size.
func openWindow(title string, width, height int) (Display, error) {
	win := gocv.NewWindow(title)
	win.ResizeWindow(width, height)
	return &window{win: win}, nil
}

func (w *window) Show(img gocv.Mat) {
	w.win.IMShow(img)
}

func (w *window) Poll(waitMillis int) int {
	return w.win.WaitKey(waitMillis)
}

func (w *window) Close() error {
	return w.win.Close()
}
