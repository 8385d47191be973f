// Package playback streams a synthesizer to the default audio device.
package playback

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Renderer fills interleaved float32 buffers without blocking; an audio
// callback must get samples (or silence) on time every time.
type Renderer interface {
	TryRender(buf []float32, frames, channels int) bool
}

const bytesPerSample = 4

// renderReader adapts a Renderer to the io.Reader the audio device
// pulls from, encoding float32 samples as little-endian bytes.
type renderReader struct {
	renderer Renderer
	channels int
	buf      []float32
}

func (r *renderReader) Read(p []byte) (int, error) {
	samples := len(p) / bytesPerSample
	frames := samples / r.channels
	if frames == 0 {
		return 0, nil
	}
	samples = frames * r.channels

	if len(r.buf) < samples {
		r.buf = make([]float32, samples)
	}
	r.renderer.TryRender(r.buf[:samples], frames, r.channels)

	encodeSamples(p, r.buf[:samples])
	return samples * bytesPerSample, nil
}

func encodeSamples(dst []byte, src []float32) {
	for i, s := range src {
		binary.LittleEndian.PutUint32(dst[i*bytesPerSample:], math.Float32bits(s))
	}
}

// Player owns the audio device connection for one renderer.
type Player struct {
	mu      sync.Mutex
	ctx     *oto.Context
	player  *oto.Player
	started bool
}

// Options configures the audio device.
type Options struct {
	SampleRate int
	Channels   int
	BufferSize int // bytes, 0 picks the device default
}

// NewPlayer opens the default audio device and wires the renderer to
// it. The device is opened immediately; playback starts with Start.
func NewPlayer(renderer Renderer, opts Options) (*Player, error) {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 48000
	}
	if opts.Channels <= 0 {
		opts.Channels = 2
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   opts.SampleRate,
		ChannelCount: opts.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   0,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	reader := &renderReader{renderer: renderer, channels: opts.Channels}
	return &Player{
		ctx:    ctx,
		player: ctx.NewPlayer(reader),
	}, nil
}

// Start begins pulling audio from the renderer.
func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		p.player.Play()
		p.started = true
	}
}

// Close stops playback and releases the device player.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player == nil {
		return nil
	}
	err := p.player.Close()
	p.player = nil
	p.started = false
	return err
}
