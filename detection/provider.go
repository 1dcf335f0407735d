// Package detection wraps the pretrained fire/smoke model behind a provider
// interface. Inference runs through the OpenCV DNN module; a GPU-backed
// provider is preferred when the hardware supports it, with automatic
// fallback to the CPU backend.
package detection

import (
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Options carries the model artifacts and inference tunables. The weights,
// network config and class-name list are opaque files produced by training;
// nothing here inspects their contents beyond loading them.
type Options struct {
	WeightsPath         string
	ConfigPath          string
	NamesPath           string
	InputSize           int
	ConfidenceThreshold float32
}

// Provider is one inference backend for the detection model.
type Provider interface {
	Initialize(opts Options) error
	Detect(frame gocv.Mat) (*Result, error)
	Close() error
	Info() ProviderInfo
}

// ProviderInfo describes the active backend.
type ProviderInfo struct {
	Type     string // "GPU" or "CPU"
	Backend  string // "CUDA" or "OpenCV CPU"
	InitTime time.Duration
}

// Manager owns the single process-wide model instance. It is created once at
// startup, handed to the orchestrator, and closed at process exit.
type Manager struct {
	provider Provider
	info     ProviderInfo
	log      *zap.SugaredLogger
}

// NewManager returns an uninitialized manager.
func NewManager(log *zap.SugaredLogger) *Manager {
	return &Manager{log: log}
}

// Initialize auto-selects the best available provider: GPU when the hardware
// checks and a test inference pass, CPU otherwise.
func (m *Manager) Initialize(opts Options) error {
	if m.hasGPUCapability() {
		m.log.Info("GPU capability detected, attempting CUDA initialization")
		gpu := &GPUProvider{}

		start := time.Now()
		if err := gpu.Initialize(opts); err == nil {
			if testProvider(gpu, opts.InputSize) {
				m.provider = gpu
				m.info = gpu.Info()
				m.info.InitTime = time.Since(start)
				m.log.Infof("GPU provider initialized (%v)", m.info.InitTime)
				return nil
			}
			m.log.Warn("GPU test inference failed, falling back to CPU")
			gpu.Close()
		} else {
			m.log.Warnf("GPU initialization failed: %v, falling back to CPU", err)
		}
	} else {
		m.log.Debug("no GPU capability detected")
	}

	cpu := &CPUProvider{}
	start := time.Now()
	if err := cpu.Initialize(opts); err != nil {
		return fmt.Errorf("could not initialize any inference provider: %w", err)
	}

	m.provider = cpu
	m.info = cpu.Info()
	m.info.InitTime = time.Since(start)
	m.log.Infof("CPU provider initialized (%v)", m.info.InitTime)
	return nil
}

// Detect runs the active provider on one frame.
func (m *Manager) Detect(frame gocv.Mat) (*Result, error) {
	if m.provider == nil {
		return nil, fmt.Errorf("detection manager not initialized")
	}
	return m.provider.Detect(frame)
}

// Info returns details about the selected backend.
func (m *Manager) Info() ProviderInfo {
	return m.info
}

// Close releases the active provider.
func (m *Manager) Close() error {
	if m.provider != nil {
		return m.provider.Close()
	}
	return nil
}

// hasGPUCapability checks whether CUDA inference is worth attempting: an
// NVIDIA card on the bus and loaded drivers. CUDA itself is verified by the
// test inference after provider initialization.
func (m *Manager) hasGPUCapability() bool {
	if !hasNVIDIAGPU() {
		return false
	}
	m.log.Debug("NVIDIA GPU found")

	if !hasNVIDIADriver() {
		m.log.Debug("NVIDIA drivers not loaded")
		return false
	}
	m.log.Debug("NVIDIA drivers loaded")
	return true
}

func hasNVIDIAGPU() bool {
	out, err := exec.Command("lspci").Output()
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(out)), "nvidia")
}

func hasNVIDIADriver() bool {
	if err := exec.Command("nvidia-smi", "--query-gpu=name", "--format=csv,noheader").Run(); err != nil {
		return false
	}
	matches, _ := filepath.Glob("/dev/nvidia*")
	return len(matches) > 0
}

// testProvider runs one inference on a blank frame to verify the backend
// actually works before committing to it.
func testProvider(provider Provider, inputSize int) bool {
	testFrame := gocv.NewMatWithSize(inputSize, inputSize, gocv.MatTypeCV8UC3)
	defer testFrame.Close()

	_, err := provider.Detect(testFrame)
	return err == nil
}

// loadClassNames reads the newline-separated class list shipped with the
// model, skipping blank lines.
func loadClassNames(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read class names: %w", err)
	}

	var names []string
	for _, line := range strings.Split(string(raw), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("class name file %s is empty", path)
	}
	return names, nil
}

// decodeOutput converts raw DNN output rows into detections scaled to the
// frame. Each row is [cx cy w h objectness class-scores...], coordinates
// normalized to the frame.
func decodeOutput(output gocv.Mat, frame gocv.Mat, classNames []string, threshold float32) []Detection {
	var detections []Detection

	frameW := float32(frame.Cols())
	frameH := float32(frame.Rows())

	for i := 0; i < output.Rows(); i++ {
		row := output.RowRange(i, i+1)
		data := row.Clone()
		if data.Cols() < 6 {
			data.Close()
			row.Close()
			continue
		}

		scores := data.ColRange(5, data.Cols())
		_, confidence, _, maxLoc := gocv.MinMaxLoc(scores)
		classID := maxLoc.X

		if confidence >= threshold && classID < len(classNames) {
			centerX := data.GetFloatAt(0, 0) * frameW
			centerY := data.GetFloatAt(0, 1) * frameH
			width := data.GetFloatAt(0, 2) * frameW
			height := data.GetFloatAt(0, 3) * frameH

			left := int(centerX - width/2)
			top := int(centerY - height/2)

			detections = append(detections, Detection{
				Rect:       image.Rect(left, top, left+int(width), top+int(height)),
				Class:      classNames[classID],
				Confidence: confidence,
			})
		}

		scores.Close()
		data.Close()
		row.Close()
	}

	return detections
}
