package detection

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// GPUProvider runs inference on the OpenCV CUDA backend. Initialization can
// succeed on a machine where CUDA inference later fails, so the manager
// always follows it with a test inference before selecting it.
type GPUProvider struct {
	net        gocv.Net
	opts       Options
	classNames []string
	mu         sync.Mutex
}

// Initialize loads the network and class names onto the CUDA backend.
func (gp *GPUProvider) Initialize(opts Options) error {
	gp.net = gocv.ReadNet(opts.WeightsPath, opts.ConfigPath)
	if gp.net.Empty() {
		return fmt.Errorf("failed to load network from %s and %s", opts.WeightsPath, opts.ConfigPath)
	}

	if err := gp.net.SetPreferableBackend(gocv.NetBackendCUDA); err != nil {
		return fmt.Errorf("could not set CUDA backend: %w", err)
	}
	if err := gp.net.SetPreferableTarget(gocv.NetTargetCUDA); err != nil {
		return fmt.Errorf("could not set CUDA target: %w", err)
	}

	names, err := loadClassNames(opts.NamesPath)
	if err != nil {
		return err
	}

	gp.opts = opts
	gp.classNames = names
	return nil
}

// Detect performs object detection on one frame.
func (gp *GPUProvider) Detect(frame gocv.Mat) (*Result, error) {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	size := image.Pt(gp.opts.InputSize, gp.opts.InputSize)
	blob := gocv.BlobFromImage(frame, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	gp.net.SetInput(blob, "")
	output := gp.net.Forward("")
	defer output.Close()

	return &Result{
		Detections: decodeOutput(output, frame, gp.classNames, gp.opts.ConfidenceThreshold),
	}, nil
}

// Close releases the network.
func (gp *GPUProvider) Close() error {
	return gp.net.Close()
}

// Info describes the CUDA backend.
func (gp *GPUProvider) Info() ProviderInfo {
	return ProviderInfo{Type: "GPU", Backend: "CUDA"}
}
