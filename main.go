// firewatch is an interactive fire/smoke detection console. It loads a
// pretrained detection model once at startup, then a text menu runs it over
// a still image, a video file, or the webcam, raising an audible alarm on
// any frame with a detection.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"firewatch/alarm"
	"firewatch/config"
	"firewatch/detection"
	"firewatch/logging"
	"firewatch/overlay"
	"firewatch/session"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.Debug)
	defer log.Sync()

	// The model is loaded exactly once and shared read-only by every mode.
	// Failing here, before the menu, is the only fatal path in the program.
	manager := detection.NewManager(log.Named("detection"))
	err := manager.Initialize(detection.Options{
		WeightsPath:         cfg.ModelWeightsPath,
		ConfigPath:          cfg.ModelConfigPath,
		NamesPath:           cfg.ClassNamesPath,
		InputSize:           cfg.ModelInputSize,
		ConfidenceThreshold: float32(cfg.ConfidenceThreshold),
	})
	if err != nil {
		log.Fatalf("could not load detection model: %v", err)
	}
	defer manager.Close()
	log.Infof("detection model ready on %s", manager.Info().Backend)

	player := alarm.NewPlayer(cfg.AlarmSoundPath, log.Named("alarm"))
	sess := session.New(manager, overlay.NewRenderer(), player, cfg, log.Named("session"))

	runMenu(sess, log)
}

// runMenu loops on stdin until quit. A failed mode logs and returns to the
// menu; nothing a single mode does tears the menu down.
func runMenu(sess *session.Session, log *zap.SugaredLogger) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Println()
		fmt.Println("Fire and Smoke Detection System")
		fmt.Println(strings.Repeat("-", 30))
		fmt.Println("1. Process image")
		fmt.Println("2. Process video")
		fmt.Println("3. Use webcam")
		fmt.Println("4. Quit")

		choice, ok := prompt(scanner, "Enter your choice (1-4): ")
		if !ok {
			return
		}

		switch choice {
		case "1":
			path, ok := prompt(scanner, "Enter image path: ")
			if !ok {
				return
			}
			if err := sess.RunImage(path); err != nil {
				log.Errorf("error processing image: %v", err)
			}
		case "2":
			path, ok := prompt(scanner, "Enter video path: ")
			if !ok {
				return
			}
			if err := sess.RunVideo(path); err != nil {
				log.Errorf("error processing video: %v", err)
			}
		case "3":
			if err := sess.RunWebcam(); err != nil {
				log.Errorf("error accessing webcam: %v", err)
			}
		case "4":
			fmt.Println("Exiting program...")
			return
		default:
			fmt.Println("Invalid choice. Please enter a number between 1-4.")
		}
	}
}

// prompt prints a label and reads one line, reporting false when stdin is
// closed.
func prompt(scanner *bufio.Scanner, label string) (string, bool) {
	fmt.Print(label)
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}
