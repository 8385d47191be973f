package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/cwbudde/algo-synth/playback"
	"github.com/cwbudde/algo-synth/preset"
	"github.com/cwbudde/algo-synth/synth"
)

func main() {
	sampleRate := flag.Int("sample-rate", 48000, "Playback sample rate in Hz")
	presetPath := flag.String("preset", "", "Preset JSON file path (default patch when empty)")
	sequence := flag.String("sequence", "220,277.18,329.63,440", "Comma-separated arpeggio frequencies in Hz")
	noteLen := flag.Float64("note-length", 0.4, "Seconds between note-on events")
	gate := flag.Float64("gate", 0.3, "Seconds a note is held before note-off")
	flag.Parse()

	patch := synth.DefaultPatch()
	if *presetPath != "" {
		loaded, err := preset.LoadJSON(*presetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
			os.Exit(1)
		}
		patch = loaded
	}

	notes, err := parseSequence(*sequence)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -sequence: %v\n", err)
		os.Exit(1)
	}

	s, err := synth.NewSynthesizer(patch, float64(*sampleRate))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating synthesizer: %v\n", err)
		os.Exit(1)
	}

	player, err := playback.NewPlayer(s, playback.Options{
		SampleRate: *sampleRate,
		Channels:   2,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio device: %v\n", err)
		os.Exit(1)
	}
	defer player.Close()
	player.Start()

	fmt.Printf("Playing %d-note arpeggio at %d Hz, Ctrl-C to stop\n", len(notes), *sampleRate)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	step := time.Duration(float64(time.Second) * (*noteLen))
	hold := time.Duration(float64(time.Second) * (*gate))
	ticker := time.NewTicker(step)
	defer ticker.Stop()

	i := 0
	for {
		freq := notes[i%len(notes)]
		s.NoteOn(freq)
		go func(f float64) {
			time.Sleep(hold)
			s.NoteOff(f)
		}(freq)
		i++

		select {
		case <-interrupt:
			fmt.Println("\nStopping")
			return
		case <-ticker.C:
		}
	}
}

func parseSequence(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil || f <= 0 {
			return nil, fmt.Errorf("invalid frequency %q", p)
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no frequencies given")
	}
	return out, nil
}
