package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-synth/analysis"
	"github.com/cwbudde/algo-synth/internal/fitcommon"
	"github.com/cwbudde/algo-synth/preset"
)

type runReport struct {
	ReferencePath   string             `json:"reference_path"`
	PresetPath      string             `json:"preset_path"`
	OutputPreset    string             `json:"output_preset"`
	SampleRate      int                `json:"sample_rate"`
	Frequency       float64            `json:"frequency"`
	DurationSec     float64            `json:"elapsed_seconds"`
	Evaluations     int                `json:"evaluations"`
	MayflyVariant   string             `json:"mayfly_variant"`
	BestScore       float64            `json:"best_score"`
	BestSimilarity  float64            `json:"best_similarity"`
	BestMetrics     analysis.Metrics   `json:"best_metrics"`
	BestKnobs       map[string]float64 `json:"best_knobs"`
	CheckpointCount int                `json:"checkpoint_count"`
}

func writeOutputs(
	cfg *optimizationConfig,
	elapsed float64,
	evals int,
	variant string,
	best candidate,
	bestM analysis.Metrics,
	checkpoints int,
) error {
	patch, _ := applyCandidate(cfg.basePatch, cfg.releaseAfter, cfg.defs, best)
	if err := os.MkdirAll(filepath.Dir(cfg.outputPreset), 0o755); err != nil {
		return err
	}
	if err := preset.SaveJSON(cfg.outputPreset, patch); err != nil {
		return err
	}

	knobs := make(map[string]float64, len(cfg.defs))
	for i, d := range cfg.defs {
		knobs[d.Name] = best.Vals[i]
	}
	rep := runReport{
		ReferencePath:   cfg.referencePath,
		PresetPath:      cfg.presetPath,
		OutputPreset:    cfg.outputPreset,
		SampleRate:      cfg.sampleRate,
		Frequency:       cfg.frequency,
		DurationSec:     elapsed,
		Evaluations:     evals,
		MayflyVariant:   variant,
		BestScore:       bestM.Score,
		BestSimilarity:  bestM.Similarity,
		BestMetrics:     bestM,
		BestKnobs:       knobs,
		CheckpointCount: checkpoints,
	}

	reportPath := cfg.reportPath
	if reportPath == "" {
		reportPath = cfg.outputPreset + ".report.json"
	}
	return writeJSON(reportPath, rep)
}

func writeBestCandidateSnapshot(cfg *optimizationConfig, best candidate) error {
	patch, releaseAfter := applyCandidate(cfg.basePatch, cfg.releaseAfter, cfg.defs, best)
	mono, err := renderCandidate(
		patch,
		cfg.frequency,
		cfg.sampleRate,
		cfg.decayDBFS,
		cfg.decayHoldBlocks,
		cfg.minDuration,
		cfg.maxDuration,
		releaseAfter,
	)
	if err != nil {
		return err
	}
	out := make([]float32, len(mono))
	for i, v := range mono {
		out[i] = float32(v)
	}
	return fitcommon.WriteMonoWAV(cfg.writeBestCandidate, out, cfg.sampleRate)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}
