package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTariff_UploadCost(t *testing.T) {
	tariff := DefaultTariff()

	tests := []struct {
		name  string
		count Count
		want  float64
	}{
		{
			name:  "empty count",
			count: Count{},
			want:  0,
		},
		{
			name:  "single image",
			count: Count{Images: 1},
			want:  0.65,
		},
		{
			name:  "video frames only",
			count: Count{VideoFrames: 10},
			want:  4.0,
		},
		{
			name:  "zipped content priced at archive rate",
			count: Count{ZipImages: 2, ZipVideoFrames: 3},
			want:  3.5,
		},
		{
			name:  "mixed upload",
			count: Count{Images: 1, VideoFrames: 3, ZipImages: 1, ZipVideoFrames: 2},
			want:  0.65 + 1.20 + 0.70 + 1.40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tariff.UploadCost(tt.count), 1e-9)
		})
	}
}

func TestTariff_InferenceCost(t *testing.T) {
	tariff := DefaultTariff()

	// Packaging is irrelevant for inference pricing: a zipped image costs
	// the same to infer as a loose one.
	loose := Count{Images: 2, VideoFrames: 5}
	zipped := Count{ZipImages: 2, ZipVideoFrames: 5}

	assert.InDelta(t, tariff.InferenceCost(loose), tariff.InferenceCost(zipped), 1e-9)
	assert.InDelta(t, 2*2.75+5*1.50, tariff.InferenceCost(loose), 1e-9)
}

func TestCount_Total(t *testing.T) {
	c := Count{Images: 1, VideoFrames: 2, ZipImages: 3, ZipVideoFrames: 4}
	assert.Equal(t, 10, c.Total())
}
