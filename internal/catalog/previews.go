package catalog

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	previewSampleRate = 22050
	previewBitDepth   = 16
	previewSeconds    = 1.6
	// previewFadeSamples is 30 ms at the preview sample rate.
	previewFadeSamples = previewSampleRate * 3 / 100

	wavFormatPCM = 1
)

// GeneratePreviews writes the PreviewCount tone files into dir, skipping files
// that already exist. Callers treat a failure as non-fatal: songs keep their
// preview URLs and the player simply has nothing to fetch.
func GeneratePreviews(dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create preview dir: %w", err)
	}

	written := 0
	for idx := 0; idx < PreviewCount; idx++ {
		path := filepath.Join(dir, PreviewFile(idx+1))
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return written, fmt.Errorf("stat %s: %w", path, err)
		}

		if err := writeTone(path, toneSamples(idx)); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// toneSamples renders a sine tone whose pitch rises with idx, with a short
// linear fade at both ends to avoid clicks.
func toneSamples(idx int) []int {
	freq := 220.0 + float64(idx)*12.0
	amp := 0.28 + float64(idx%6)*0.02

	total := int(previewSampleRate * previewSeconds)
	fade := previewFadeSamples

	samples := make([]int, total)
	for n := 0; n < total; n++ {
		envelope := 1.0
		if n < fade {
			envelope = float64(n) / float64(fade)
		}
		if n > total-fade {
			envelope = float64(total-n) / float64(fade)
		}
		t := float64(n) / previewSampleRate
		value := amp * envelope * math.Sin(2*math.Pi*freq*t) * 32767.0
		samples[n] = int(math.Max(math.Min(value, 32767), -32768))
	}
	return samples
}

func writeTone(path string, samples []int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	enc := wav.NewEncoder(f, previewSampleRate, previewBitDepth, 1, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: previewSampleRate},
		Data:           samples,
		SourceBitDepth: previewBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return nil
}
