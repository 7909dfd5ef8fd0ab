package estimator

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// SampleFPS is the fixed decode sampling rate: one frame per input second.
const SampleFPS = 1

// FFProbeCounter counts sampled frames by probing the container duration
// with an ffprobe subprocess. The bytes are spooled to a temporary file
// first: common mp4 encodes put the moov atom after the media data, and
// ffprobe needs a seekable input to reach it.
type FFProbeCounter struct {
	// Binary overrides the ffprobe executable name, mainly for tests.
	Binary string
}

// CountFrames reports ceil(duration) frames for the fixed 1 fps sample rate.
// A probe failure or unparseable duration is an error, never a silent zero.
func (f *FFProbeCounter) CountFrames(ctx context.Context, data []byte) (int, error) {
	binary := f.Binary
	if binary == "" {
		binary = "ffprobe"
	}

	tmp, err := os.CreateTemp("", "probe-*.media")
	if err != nil {
		return 0, fmt.Errorf("ffprobe: spool media: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("ffprobe: spool media: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("ffprobe: spool media: %w", err)
	}

	cmd := exec.CommandContext(ctx, binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		"-i", tmp.Name(),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	raw := strings.TrimSpace(stdout.String())
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: unparseable duration %q: %w", raw, err)
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("ffprobe: non-positive duration %v", seconds)
	}

	return int(math.Ceil(seconds * SampleFPS)), nil
}
