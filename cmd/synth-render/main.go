package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-synth/internal/fitcommon"
	"github.com/cwbudde/algo-synth/preset"
	"github.com/cwbudde/algo-synth/synth"
)

func main() {
	freqs := flag.String("freq", "440", "Comma-separated note frequencies in Hz")
	duration := flag.Float64("duration", 2.0, "Duration in seconds")
	decayDBFS := flag.Float64("decay-dbfs", math.Inf(1), "Auto-stop when block RMS falls below this dBFS (e.g. -90). Disabled by default")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks required to stop in auto-decay mode")
	minDuration := flag.Float64("min-duration", 0.5, "Minimum render duration in seconds when using -decay-dbfs")
	maxDuration := flag.Float64("max-duration", 20.0, "Maximum render duration in seconds when using -decay-dbfs")
	releaseAfter := flag.Float64("release-after", 1.0, "Send note-off after this many seconds")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	channels := flag.Int("channels", 2, "Output channel count")
	presetPath := flag.String("preset", "", "Preset JSON file path (default patch when empty)")
	output := flag.String("output", "output.wav", "Output WAV file path")
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

	notes, err := parseFrequencies(*freqs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -freq: %v\n", err)
		os.Exit(1)
	}

	s, err := synth.NewSynthesizer(patch, float64(*sampleRate))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating synthesizer: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Rendering %v Hz for %.2f seconds at %d Hz (preset: %s)...\n", notes, *duration, *sampleRate, presetName(*presetPath))

	for _, f := range notes {
		s.NoteOn(f)
	}

	const blockSize = 128
	autoStop := !math.IsInf(*decayDBFS, 1)

	var totalFrames int
	if !autoStop {
		totalFrames = int(float64(*sampleRate) * (*duration))
		if totalFrames < 1 {
			totalFrames = 1
		}
	}

	initialFrames := totalFrames
	if autoStop {
		initialFrames = int(float64(*sampleRate) * (*minDuration))
		if initialFrames < blockSize {
			initialFrames = blockSize
		}
	}
	samples := make([]float32, 0, initialFrames**channels)
	block := make([]float32, blockSize**channels)

	releaseAtFrame := int(float64(*sampleRate) * (*releaseAfter))
	if releaseAtFrame < 0 {
		releaseAtFrame = 0
	}
	notesReleased := false

	framesRendered := 0
	if autoStop {
		minFrames := int(float64(*sampleRate) * (*minDuration))
		maxFrames := int(float64(*sampleRate) * (*maxDuration))
		if maxFrames < minFrames {
			maxFrames = minFrames
		}
		if maxFrames < 1 {
			maxFrames = blockSize
		}

		thresholdLin := math.Pow(10.0, *decayDBFS/20.0)
		belowCount := 0
		if *decayHoldBlocks < 1 {
			*decayHoldBlocks = 1
		}
		for framesRendered < maxFrames {
			framesToRender := blockSize
			if framesRendered+framesToRender > maxFrames {
				framesToRender = maxFrames - framesRendered
			}

			if !notesReleased && framesRendered >= releaseAtFrame {
				for _, f := range notes {
					s.NoteOff(f)
				}
				notesReleased = true
			}

			chunk := block[:framesToRender**channels]
			s.Render(chunk, framesToRender, *channels)
			samples = append(samples, chunk...)
			framesRendered += framesToRender

			if framesRendered >= minFrames {
				if fitcommon.RMS(chunk) < thresholdLin {
					belowCount++
					if belowCount >= *decayHoldBlocks {
						break
					}
				} else {
					belowCount = 0
				}
			}
		}
		totalFrames = framesRendered
		fmt.Printf("Auto-stop at %d frames (%.3fs), threshold %.1f dBFS\n", totalFrames, float64(totalFrames)/float64(*sampleRate), *decayDBFS)
	} else {
		for framesRendered < totalFrames {
			framesToRender := blockSize
			if framesRendered+framesToRender > totalFrames {
				framesToRender = totalFrames - framesRendered
			}

			if !notesReleased && framesRendered >= releaseAtFrame {
				for _, f := range notes {
					s.NoteOff(f)
				}
				notesReleased = true
			}

			chunk := block[:framesToRender**channels]
			s.Render(chunk, framesToRender, *channels)
			samples = append(samples, chunk...)
			framesRendered += framesToRender
		}
	}

	if err := fitcommon.WriteInterleavedWAV(*output, samples, *sampleRate, *channels); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully wrote %s (%d frames)\n", *output, totalFrames)
}

func parseFrequencies(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid frequency %q", p)
		}
		if f <= 0 {
			return nil, fmt.Errorf("frequency %g must be > 0", f)
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no frequencies given")
	}
	return out, nil
}

func presetName(path string) string {
	if path == "" {
		return "default"
	}
	return path
}
