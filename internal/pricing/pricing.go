// Package pricing holds the per-unit tariff applied to uploaded media.
// A billable unit is one still image or one sampled video frame.
package pricing

// Tariff holds the token price of each media unit. Upload prices are charged
// once when content enters a dataset; inference prices accrue onto the
// dataset and are debited when a job is admitted.
type Tariff struct {
	UploadImage      float64
	UploadVideoFrame float64
	UploadZipImage   float64
	UploadZipFrame   float64
	InferImage       float64
	InferVideoFrame  float64
}

// DefaultTariff mirrors the launch price list.
func DefaultTariff() Tariff {
	return Tariff{
		UploadImage:      0.65,
		UploadVideoFrame: 0.40,
		UploadZipImage:   0.70,
		UploadZipFrame:   0.70,
		InferImage:       2.75,
		InferVideoFrame:  1.50,
	}
}

// Count is the billable-unit tally produced by the estimator. Images and
// frames that arrived inside an archive are priced separately on upload.
type Count struct {
	Images         int
	VideoFrames    int
	ZipImages      int
	ZipVideoFrames int
}

// Total returns the number of billable units regardless of packaging.
func (c Count) Total() int {
	return c.Images + c.VideoFrames + c.ZipImages + c.ZipVideoFrames
}

// UploadCost prices the one-time ingestion of the counted units.
func (t Tariff) UploadCost(c Count) float64 {
	return float64(c.Images)*t.UploadImage +
		float64(c.VideoFrames)*t.UploadVideoFrame +
		float64(c.ZipImages)*t.UploadZipImage +
		float64(c.ZipVideoFrames)*t.UploadZipFrame
}

// InferenceCost prices one inference pass over the counted units. Packaging
// does not matter here, only the unit kind.
func (t Tariff) InferenceCost(c Count) float64 {
	return float64(c.Images+c.ZipImages)*t.InferImage +
		float64(c.VideoFrames+c.ZipVideoFrames)*t.InferVideoFrame
}
