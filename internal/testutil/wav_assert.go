package testutil

import (
	"encoding/binary"
	"errors"
	"testing"
)

// AssertValidWAV checks that data is a mono 16-bit PCM WAV at the expected
// sample rate with at least one sample.
func AssertValidWAV(tb testing.TB, data []byte, wantRate int) {
	tb.Helper()

	if len(data) < 44 {
		tb.Fatalf("WAV data too short: %d bytes", len(data))
	}

	if string(data[0:4]) != "RIFF" {
		tb.Fatalf("WAV: missing RIFF header (got %q)", string(data[0:4]))
	}
	if string(data[8:12]) != "WAVE" {
		tb.Fatalf("WAV: missing WAVE marker (got %q)", string(data[8:12]))
	}
	if string(data[12:16]) != "fmt " {
		tb.Fatalf("WAV: missing fmt chunk (got %q)", string(data[12:16]))
	}

	// fmt chunk fields (little-endian).
	if audioFmt := binary.LittleEndian.Uint16(data[20:22]); audioFmt != 1 {
		tb.Fatalf("WAV: format %d, want PCM (1)", audioFmt)
	}
	if channels := binary.LittleEndian.Uint16(data[22:24]); channels != 1 {
		tb.Fatalf("WAV: %d channels, want mono", channels)
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); int(rate) != wantRate {
		tb.Fatalf("WAV: sample rate %d, want %d", rate, wantRate)
	}
	if depth := binary.LittleEndian.Uint16(data[34:36]); depth != 16 {
		tb.Fatalf("WAV: bit depth %d, want 16", depth)
	}

	dataSize, err := dataChunkSize(data)
	if err != nil {
		tb.Fatalf("WAV: %v", err)
	}
	if dataSize/2 == 0 {
		tb.Fatal("WAV: data chunk contains zero samples")
	}
}

// AssertWAVDuration asserts that the audio duration falls within [minSec,
// maxSec]. The sample count is read from the data chunk as 16-bit mono at
// sampleRate.
func AssertWAVDuration(tb testing.TB, data []byte, sampleRate int, minSec, maxSec float64) {
	tb.Helper()

	dataSize, err := dataChunkSize(data)
	if err != nil {
		tb.Fatalf("WAV duration check: %v", err)
	}

	sec := float64(dataSize/2) / float64(sampleRate)
	if sec < minSec || sec > maxSec {
		tb.Fatalf("WAV duration %.3fs outside expected range [%.3fs, %.3fs]", sec, minSec, maxSec)
	}
}

// dataChunkSize walks the WAV chunk list to locate the "data" sub-chunk and
// returns its size in bytes.
func dataChunkSize(data []byte) (uint32, error) {
	// Start after the 12-byte RIFF/WAVE header.
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])

		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		if id == "data" {
			return size, nil
		}

		offset += 8 + int(size)
		// Chunks pad to even boundaries.
		if size%2 != 0 {
			offset++
		}
	}

	return 0, errors.New("data chunk not found in WAV")
}
