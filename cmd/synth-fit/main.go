package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-synth/internal/fitcommon"
	"github.com/cwbudde/algo-synth/preset"
	"github.com/cwbudde/algo-synth/synth"
)

func main() {
	referencePath := flag.String("reference", "reference/a4.wav", "Reference WAV path")
	presetPath := flag.String("preset", "", "Base preset JSON path (default patch when empty)")
	outputPreset := flag.String("output-preset", "out/fitted.json", "Path to write best fitted preset JSON")
	reportPath := flag.String("report", "", "Optional report JSON path (default: <output-preset>.report.json)")
	frequency := flag.Float64("freq", 440.0, "Note frequency in Hz to fit")
	sampleRate := flag.Int("sample-rate", 48000, "Render/analysis sample rate")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 120.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 10000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 20, "Print progress every N evaluations")
	checkpointEvery := flag.Int("checkpoint-every", 1, "Write checkpoint every N best-score improvements")
	decayDBFS := flag.Float64("decay-dbfs", -90.0, "Auto-stop threshold in dBFS")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks for stop")
	minDuration := flag.Float64("min-duration", 1.0, "Minimum render duration in seconds")
	maxDuration := flag.Float64("max-duration", 15.0, "Maximum render duration in seconds")
	releaseAfter := flag.Float64("release-after", 1.0, "Send note-off after this many seconds")
	optimizeGroups := flag.String("optimize", "osc,envelope,filter,filter-env", "Comma-separated knob groups to optimize")
	writeBestCandidate := flag.String("write-best-candidate", "", "Optional WAV path to write best candidate render")
	workersRaw := flag.String("workers", "auto", "Parallel optimization workers (integer or 'auto')")
	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	workers, err := fitcommon.ParseWorkers(*workersRaw)
	if err != nil {
		die("invalid -workers: %v", err)
	}

	groups, err := parseOptimizeGroups(*optimizeGroups)
	if err != nil {
		die("invalid -optimize: %v", err)
	}

	basePatch := synth.DefaultPatch()
	if *presetPath != "" {
		basePatch, err = preset.LoadJSON(*presetPath)
		if err != nil {
			die("load preset %q: %v", *presetPath, err)
		}
	}

	refRaw, refRate, err := fitcommon.ReadWAVMono(*referencePath)
	if err != nil {
		die("read reference %q: %v", *referencePath, err)
	}
	reference, err := fitcommon.ResampleIfNeeded(refRaw, refRate, *sampleRate)
	if err != nil {
		die("resample reference: %v", err)
	}
	fmt.Printf("Reference: %d frames @ %d Hz (%.2fs)\n", len(reference), *sampleRate, float64(len(reference))/float64(*sampleRate))

	defs, init := initCandidate(basePatch, *releaseAfter, groups)
	if len(defs) == 0 {
		die("no knobs selected by -optimize %q", *optimizeGroups)
	}
	fmt.Printf("Optimizing %d knobs (%s) with %s\n", len(defs), *optimizeGroups, *mayflyVariant)

	cfg := &optimizationConfig{
		reference:          reference,
		basePatch:          basePatch,
		defs:               defs,
		initCandidate:      init,
		frequency:          *frequency,
		sampleRate:         *sampleRate,
		seed:               *seed,
		timeBudget:         *timeBudget,
		maxEvals:           *maxEvals,
		reportEvery:        *reportEvery,
		checkpointEvery:    *checkpointEvery,
		decayDBFS:          *decayDBFS,
		decayHoldBlocks:    *decayHoldBlocks,
		minDuration:        *minDuration,
		maxDuration:        *maxDuration,
		releaseAfter:       *releaseAfter,
		mayflyVariant:      *mayflyVariant,
		mayflyPop:          *mayflyPop,
		mayflyRoundEvals:   *mayflyRoundEvals,
		workers:            workers,
		outputPreset:       *outputPreset,
		reportPath:         *reportPath,
		referencePath:      *referencePath,
		presetPath:         *presetPath,
		writeBestCandidate: *writeBestCandidate,
	}

	result, err := runOptimization(cfg)
	if err != nil {
		die("optimization failed: %v", err)
	}

	if err := writeOutputs(cfg, result.elapsed, result.evals, strings.ToLower(*mayflyVariant), result.best, result.bestMetrics, result.checkpoints); err != nil {
		die("write outputs: %v", err)
	}

	fmt.Printf("Done: score=%.4f similarity=%.2f%% evals=%d elapsed=%.1fs\n",
		result.bestMetrics.Score, result.bestMetrics.Similarity*100.0, result.evals, result.elapsed)
	fmt.Printf("Wrote %s\n", *outputPreset)
}

// parseOptimizeGroups parses a comma-separated string of group names.
// Valid groups: osc, envelope, filter, filter-env.
func parseOptimizeGroups(raw string) (map[string]bool, error) {
	valid := map[string]bool{"osc": true, "envelope": true, "filter": true, "filter-env": true}
	groups := make(map[string]bool)
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !valid[s] {
			return nil, fmt.Errorf("unknown optimize group %q (valid: osc, envelope, filter, filter-env)", s)
		}
		groups[s] = true
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no optimize groups specified")
	}
	return groups, nil
}

// renderCandidate renders a single note with the candidate patch,
// stopping once the output has decayed below the threshold.
func renderCandidate(
	patch synth.Patch,
	frequency float64,
	sampleRate int,
	decayDBFS float64,
	decayHoldBlocks int,
	minDuration float64,
	maxDuration float64,
	releaseAfter float64,
) ([]float64, error) {
	s, err := synth.NewSynthesizer(patch, float64(sampleRate))
	if err != nil {
		return nil, err
	}
	s.NoteOn(frequency)

	if decayHoldBlocks < 1 {
		decayHoldBlocks = 1
	}
	if minDuration < 0 {
		minDuration = 0
	}
	if maxDuration < minDuration {
		maxDuration = minDuration
	}

	minFrames := int(float64(sampleRate) * minDuration)
	maxFrames := int(float64(sampleRate) * maxDuration)
	releaseAtFrame := int(float64(sampleRate) * releaseAfter)
	if releaseAtFrame < 0 {
		releaseAtFrame = 0
	}
	if maxFrames < 1 {
		return nil, errors.New("max duration too small")
	}

	threshold := math.Pow(10.0, decayDBFS/20.0)
	const blockSize = 128
	block := make([]float32, blockSize)
	mono := make([]float64, 0, maxFrames)
	framesRendered := 0
	belowCount := 0
	noteReleased := false

	for framesRendered < maxFrames {
		framesToRender := blockSize
		if framesRendered+framesToRender > maxFrames {
			framesToRender = maxFrames - framesRendered
		}
		if !noteReleased && framesRendered >= releaseAtFrame {
			s.NoteOff(frequency)
			noteReleased = true
		}
		chunk := block[:framesToRender]
		s.Render(chunk, framesToRender, 1)
		for _, v := range chunk {
			mono = append(mono, float64(v))
		}
		framesRendered += framesToRender

		if framesRendered >= minFrames {
			if fitcommon.RMS(chunk) < threshold {
				belowCount++
				if belowCount >= decayHoldBlocks {
					break
				}
			} else {
				belowCount = 0
			}
		}
	}

	return mono, nil
}
