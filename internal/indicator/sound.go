package indicator

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/wav"
	"github.com/jfreymuth/pulse"
)

// Player plays WAV cues through the Pulse server.
//
// Play returns immediately. A new cue stops the one still playing.
type Player struct {
	logger *slog.Logger

	generation atomic.Uint64
	soundMu    sync.Mutex
	wg         sync.WaitGroup
}

// NewPlayer creates a cue player.
func NewPlayer(logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Player{logger: logger}
}

// Play starts path at volume (0-100). Empty paths and zero volume are silent.
func (p *Player) Play(path string, volume int) {
	if path == "" || volume <= 0 {
		return
	}
	gen := p.generation.Add(1)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.soundMu.Lock()
		defer p.soundMu.Unlock()
		if p.generation.Load() != gen {
			return
		}
		if err := p.playFile(path, volume, gen); err != nil {
			p.logger.Debug("sound cue failed", "path", path, "error", err.Error())
		}
	}()
}

// Stop interrupts any cue and waits for playback goroutines to finish.
func (p *Player) Stop() {
	p.generation.Add(1)
	p.wg.Wait()
}

func (p *Player) playFile(path string, volume int, gen uint64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open cue file: %w", err)
	}
	defer func() { _ = f.Close() }()

	streamer, format, err := wav.Decode(f)
	if err != nil {
		return fmt.Errorf("decode cue file: %w", err)
	}
	defer func() { _ = streamer.Close() }()

	attenuated := withVolume(streamer, volume)
	reader := p.stereoReader(attenuated, gen)

	client, err := pulse.NewClient(
		pulse.ClientApplicationName("mictoggle"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackStereo,
		pulse.PlaybackSampleRate(int(format.SampleRate)),
		pulse.PlaybackLatency(0.05),
		pulse.PlaybackMediaName("mictoggle cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil && !errors.Is(err, pulse.EndOfData) {
		return fmt.Errorf("play cue stream: %w", err)
	}
	return nil
}

// stereoReader pulls interleaved float32 frames from s until it ends or a newer cue starts.
func (p *Player) stereoReader(s beep.Streamer, gen uint64) pulse.Float32Reader {
	var frames [][2]float64
	return pulse.Float32Reader(func(buf []float32) (int, error) {
		if p.generation.Load() != gen {
			return 0, pulse.EndOfData
		}
		want := len(buf) / 2
		if cap(frames) < want {
			frames = make([][2]float64, want)
		}
		frames = frames[:want]

		n, ok := s.Stream(frames)
		for i := 0; i < n; i++ {
			buf[2*i] = float32(frames[i][0])
			buf[2*i+1] = float32(frames[i][1])
		}
		if !ok || n < want {
			return 2 * n, pulse.EndOfData
		}
		return 2 * n, nil
	})
}

// withVolume scales s by volume percent, with 100 as unity gain.
func withVolume(s beep.Streamer, volume int) beep.Streamer {
	if volume >= 100 {
		return s
	}
	return &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   volumeExponent(volume),
		Silent:   volume <= 0,
	}
}

// volumeExponent maps a linear percent to the base-2 exponent effects.Volume expects.
func volumeExponent(volume int) float64 {
	if volume <= 0 {
		return math.Inf(-1)
	}
	if volume >= 100 {
		return 0
	}
	return math.Log2(float64(volume) / 100)
}
