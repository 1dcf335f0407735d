// Package alarm plays the alert sound. Playback is synchronous: Play returns
// only once the clip has finished, which is exactly the behavior the frame
// loop relies on. Failures never propagate past the caller's log line; a
// broken audio setup must not stop detection.
package alarm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/go-audio/wav"
	"go.uber.org/zap"
)

// Player plays the alarm clip to completion.
type Player interface {
	Play() error
}

// WavePlayer decodes the configured WAV file and plays it through the system
// audio device. When no device context can be created (headless machines),
// it falls back to an external command-line player, mirroring how the rest
// of the system degrades GPU to CPU rather than failing.
type WavePlayer struct {
	path     string
	log      *zap.SugaredLogger
	fallback Player

	mu  sync.Mutex
	ctx *oto.Context
}

// NewPlayer returns the alarm player for the given WAV file.
func NewPlayer(path string, log *zap.SugaredLogger) *WavePlayer {
	return &WavePlayer{
		path:     path,
		log:      log,
		fallback: newCommandPlayer(path),
	}
}

// Play loads the clip and blocks until playback completes.
func (p *WavePlayer) Play() error {
	clip, err := p.decode()
	if err != nil {
		return err
	}

	ctx, err := p.context(clip.sampleRate, clip.channels)
	if err != nil {
		if p.fallback != nil {
			p.log.Debugf("no audio device context (%v), using external player", err)
			return p.fallback.Play()
		}
		return err
	}

	player := ctx.NewPlayer(bytes.NewReader(clip.pcm))
	player.Play()
	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}
	return player.Close()
}

type clip struct {
	pcm        []byte
	sampleRate int
	channels   int
}

// decode reads the whole WAV file into interleaved signed 16-bit PCM. The
// alarm clip is short, so buffering it fully keeps playback simple.
func (p *WavePlayer) decode() (*clip, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("could not open alarm sound: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid WAV file", p.path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("could not decode %s: %w", p.path, err)
	}

	pcm := make([]byte, 2*len(buf.Data))
	switch dec.BitDepth {
	case 16:
		for i, s := range buf.Data {
			binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(s)))
		}
	case 8:
		// 8-bit WAV samples are unsigned; recenter and widen.
		for i, s := range buf.Data {
			binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(s-128)<<8))
		}
	default:
		return nil, fmt.Errorf("unsupported WAV bit depth %d in %s", dec.BitDepth, p.path)
	}

	return &clip{
		pcm:        pcm,
		sampleRate: buf.Format.SampleRate,
		channels:   buf.Format.NumChannels,
	}, nil
}

// context returns the process-wide audio context, creating it on first use.
// The oto context is a singleton, so it is cached for the process lifetime.
func (p *WavePlayer) context(sampleRate, channels int) (*oto.Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx != nil {
		return p.ctx, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create audio context: %w", err)
	}
	<-ready

	p.ctx = ctx
	return ctx, nil
}
