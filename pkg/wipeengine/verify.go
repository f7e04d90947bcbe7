// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package wipeengine

import (
	"crypto/rand"
	"math/big"
	"os"
	"strconv"

	"github.com/stratastor/diskwiper/pkg/errors"
)

const verifySampleSize = 4096

// verifySampleOutcome classifies one sampled offset's content.
type verifySampleOutcome string

const (
	sampleAllZeros      verifySampleOutcome = "all_zeros"
	sampleAllOnes       verifySampleOutcome = "all_ones"
	sampleAppearsRandom verifySampleOutcome = "appears_random"
)

// verifySample is one sampled offset's outcome, the shape recorded into
// verification_data.
type verifySample struct {
	Offset  uint64              `json:"offset"`
	Outcome verifySampleOutcome `json:"outcome"`
}

// verifyBSI samples ten uniformly random offsets across the device and
// classifies each. It passes — at the caller's discretion — if any
// sample appears random. A verification failure is recorded, not fatal:
// it never changes the wipe log's status.
func verifyBSI(devicePath string, totalSize uint64) ([]verifySample, bool, error) {
	if totalSize <= verifySampleSize {
		return nil, false, errors.New(errors.WipeVerificationFailed, "device too small to sample").
			WithMetadata("device_path", devicePath)
	}

	f, err := os.Open(devicePath)
	if err != nil {
		return nil, false, errors.Wrap(err, errors.WipeVerificationFailed).WithMetadata("device_path", devicePath)
	}
	defer f.Close()

	maxOffset := totalSize - verifySampleSize
	samples := make([]verifySample, 0, 10)
	anyRandom := false

	for i := 0; i < 10; i++ {
		offset, err := randomOffset(maxOffset)
		if err != nil {
			return samples, anyRandom, errors.Wrap(err, errors.WipeVerificationFailed)
		}

		buf := make([]byte, verifySampleSize)
		if _, err := f.ReadAt(buf, int64(offset)); err != nil {
			return samples, anyRandom, errors.Wrap(err, errors.WipeVerificationFailed).
				WithMetadata("offset", strconv.FormatUint(offset, 10))
		}

		outcome := classifySample(buf)
		if outcome == sampleAppearsRandom {
			anyRandom = true
		}
		samples = append(samples, verifySample{Offset: offset, Outcome: outcome})
	}

	return samples, anyRandom, nil
}

// classifySample inspects the first 100 bytes of a sample: uniform 0x00
// or 0xFF is flagged explicitly, anything else is "appears_random" (a
// heuristic, not a statistical randomness test).
func classifySample(buf []byte) verifySampleOutcome {
	n := 100
	if len(buf) < n {
		n = len(buf)
	}
	allZeros, allOnes := true, true
	for _, b := range buf[:n] {
		if b != 0x00 {
			allZeros = false
		}
		if b != 0xFF {
			allOnes = false
		}
		if !allZeros && !allOnes {
			break
		}
	}
	switch {
	case allZeros:
		return sampleAllZeros
	case allOnes:
		return sampleAllOnes
	default:
		return sampleAppearsRandom
	}
}

func randomOffset(max uint64) (uint64, error) {
	n, err := rand.Int(rand.Reader, new(big.Int).SetUint64(max))
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}
