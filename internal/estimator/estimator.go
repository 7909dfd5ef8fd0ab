// Package estimator counts billable media units in uploaded content.
//
// The estimator is pure computation: it classifies bytes, decodes video to
// count sampled frames, and walks zip archives, but persists nothing.
package estimator

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/tokenvision/inference-be/internal/pricing"
)

var (
	// ErrInvalidMediaFormat is returned when a top-level file cannot be
	// classified as image, video, or archive, or when video decoding fails.
	ErrInvalidMediaFormat = errors.New("invalid media format")

	// ErrInvalidArchive is returned when a zip archive contains a directory
	// entry or an entry of an unsupported type. The whole estimate fails;
	// partial counts are never reported.
	ErrInvalidArchive = errors.New("invalid zip archive")
)

// UnknownEntryPolicy governs how a zip entry with an unresolvable media type
// is counted. The historical behavior is to count it as an image, even though
// an unresolvable top-level file is rejected outright. The asymmetry is
// intentional and kept behind this policy switch rather than hard-coded.
type UnknownEntryPolicy int

const (
	// UnknownEntryAsImage counts an unclassifiable zip entry as one image.
	UnknownEntryAsImage UnknownEntryPolicy = iota
	// UnknownEntryRejects fails the estimate with ErrInvalidArchive instead.
	UnknownEntryRejects
)

// FrameCounter decodes raw video bytes and reports the number of frames
// sampled at the fixed rate of one frame per second of input.
type FrameCounter interface {
	CountFrames(ctx context.Context, data []byte) (int, error)
}

// Item is one uploaded file to be priced.
type Item struct {
	Name string
	Data []byte
}

// Estimator classifies media items and tallies billable units.
type Estimator struct {
	frames FrameCounter
	policy UnknownEntryPolicy
}

// New returns an Estimator using the given frame counter and the default
// permissive policy for unknown zip entries.
func New(frames FrameCounter) *Estimator {
	return &Estimator{frames: frames, policy: UnknownEntryAsImage}
}

// NewWithPolicy returns an Estimator with an explicit unknown-entry policy.
func NewWithPolicy(frames FrameCounter, policy UnknownEntryPolicy) *Estimator {
	return &Estimator{frames: frames, policy: policy}
}

// Estimate counts the billable units across all items. Any classification or
// decode failure fails the whole estimate.
func (e *Estimator) Estimate(ctx context.Context, items []Item) (pricing.Count, error) {
	var count pricing.Count
	for _, item := range items {
		kind := classify(item.Name, item.Data)
		switch kind {
		case kindImage:
			count.Images++
		case kindVideo:
			frames, err := e.frames.CountFrames(ctx, item.Data)
			if err != nil {
				return pricing.Count{}, fmt.Errorf("%w: %s: %v", ErrInvalidMediaFormat, item.Name, err)
			}
			count.VideoFrames += frames
		case kindArchive:
			if err := e.estimateArchive(ctx, item, &count); err != nil {
				return pricing.Count{}, err
			}
		default:
			return pricing.Count{}, fmt.Errorf("%w: %s", ErrInvalidMediaFormat, item.Name)
		}
	}
	return count, nil
}

// estimateArchive walks every entry of a zip archive, accumulating zipped
// image and frame counts into count.
func (e *Estimator) estimateArchive(ctx context.Context, item Item, count *pricing.Count) error {
	reader, err := zip.NewReader(bytes.NewReader(item.Data), int64(len(item.Data)))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidArchive, item.Name, err)
	}

	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			return fmt.Errorf("%w: %s contains directory entry %q", ErrInvalidArchive, item.Name, entry.Name)
		}

		data, err := readEntry(entry)
		if err != nil {
			return fmt.Errorf("%w: %s: entry %q: %v", ErrInvalidArchive, item.Name, entry.Name, err)
		}

		switch classify(entry.Name, data) {
		case kindImage:
			count.ZipImages++
		case kindVideo:
			frames, err := e.frames.CountFrames(ctx, data)
			if err != nil {
				return fmt.Errorf("%w: %s: entry %q: %v", ErrInvalidArchive, item.Name, entry.Name, err)
			}
			count.ZipVideoFrames += frames
		case kindUnknown:
			if e.policy == UnknownEntryRejects {
				return fmt.Errorf("%w: %s: entry %q has no resolvable media type", ErrInvalidArchive, item.Name, entry.Name)
			}
			count.ZipImages++
		default:
			return fmt.Errorf("%w: %s: entry %q is not image or video", ErrInvalidArchive, item.Name, entry.Name)
		}
	}
	return nil
}

func readEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

type mediaKind int

const (
	kindUnknown mediaKind = iota
	kindImage
	kindVideo
	kindArchive
	kindOther
)

// classify sniffs content to decide the media kind. Content detection wins;
// the file name only breaks ties for types the sniffer cannot resolve.
func classify(name string, data []byte) mediaKind {
	detected := mimetype.Detect(data)
	mt := detected.String()

	switch {
	case strings.HasPrefix(mt, "image/"):
		return kindImage
	case mt == "video/mp4" || strings.HasPrefix(mt, "video/"):
		return kindVideo
	case detected.Is("application/zip"):
		return kindArchive
	case mt == "application/octet-stream" || mt == "text/plain; charset=utf-8":
		// The sniffer gave up; fall through to the extension.
		return classifyByExtension(name)
	default:
		return kindOther
	}
}

func classifyByExtension(name string) mediaKind {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return kindUnknown
	}
	switch strings.ToLower(name[idx:]) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tiff":
		return kindImage
	case ".mp4":
		return kindVideo
	case ".zip":
		return kindArchive
	default:
		return kindUnknown
	}
}
