package detection

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// CPUProvider runs inference on the OpenCV CPU backend. It is the fallback
// that must work everywhere.
type CPUProvider struct {
	net        gocv.Net
	opts       Options
	classNames []string
	mu         sync.Mutex
}

// Initialize loads the network and class names onto the CPU backend.
func (cp *CPUProvider) Initialize(opts Options) error {
	cp.net = gocv.ReadNet(opts.WeightsPath, opts.ConfigPath)
	if cp.net.Empty() {
		return fmt.Errorf("failed to load network from %s and %s", opts.WeightsPath, opts.ConfigPath)
	}

	if err := cp.net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		return fmt.Errorf("could not set CPU backend: %w", err)
	}
	if err := cp.net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		return fmt.Errorf("could not set CPU target: %w", err)
	}

	names, err := loadClassNames(opts.NamesPath)
	if err != nil {
		return err
	}

	cp.opts = opts
	cp.classNames = names
	return nil
}

// Detect performs object detection on one frame.
func (cp *CPUProvider) Detect(frame gocv.Mat) (*Result, error) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	size := image.Pt(cp.opts.InputSize, cp.opts.InputSize)
	blob := gocv.BlobFromImage(frame, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	cp.net.SetInput(blob, "")
	output := cp.net.Forward("")
	defer output.Close()

	return &Result{
		Detections: decodeOutput(output, frame, cp.classNames, cp.opts.ConfidenceThreshold),
	}, nil
}

// Close releases the network.
func (cp *CPUProvider) Close() error {
	return cp.net.Close()
}

// Info describes the CPU backend.
func (cp *CPUProvider) Info() ProviderInfo {
	return ProviderInfo{Type: "CPU", Backend: "OpenCV CPU"}
}
