package results

// QualityBand is one bin of the score distribution used by quality
// reports. A score belongs to the lowest band whose upper bound it does
// not exceed, so bounds are inclusive on the right.
type QualityBand struct {
	Label string
	Min   float64
	Max   float64
}

// qualityBands split the 0-10 scale into the ranges reports group by.
// The 8.5 usability threshold from the scoring rubric falls inside the
// "good" band; reporting uses a finer grid to show the shape of a batch.
var qualityBands = []QualityBand{
	{Label: "[0.0-2.9] poor", Min: 0.0, Max: 2.9},
	{Label: "[3.0-4.9] below average", Min: 3.0, Max: 4.9},
	{Label: "[5.0-6.9] average", Min: 5.0, Max: 6.9},
	{Label: "[7.0-8.9] good", Min: 7.0, Max: 8.9},
	{Label: "[9.0-10.0] professional", Min: 9.0, Max: 10.0},
}

// Bands returns the quality bands in ascending score order.
func Bands() []QualityBand {
	bands := make([]QualityBand, len(qualityBands))
	copy(bands, qualityBands)
	return bands
}

// BandFor returns the band a score falls into. Scores outside 0-10 are
// clamped into the nearest band; stored results are already clamped, so
// this only matters for hand-edited sidecars.
func BandFor(score float64) QualityBand {
	for _, band := range qualityBands {
		if score <= band.Max {
			return band
		}
	}
	return qualityBands[len(qualityBands)-1]
}

// BandStat is one row of a score distribution table.
type BandStat struct {
	Band           QualityBand
	Count          int
	Percentage     float64
	AICount        int
	AIRate         float64
	WatermarkCount int
	WatermarkRate  float64
}

// Distribution bins results by score and derives per-band AI and
// watermark rates. Every band appears in the output, empty ones with
// zero counts, so tables keep a stable shape.
func Distribution(scored []*ScoreResult) []BandStat {
	stats := make([]BandStat, len(qualityBands))
	for i, band := range qualityBands {
		stats[i].Band = band
	}

	for _, result := range scored {
		for i, band := range qualityBands {
			if result.Score <= band.Max || i == len(qualityBands)-1 {
				stats[i].Count++
				if result.IsAIGenerated {
					stats[i].AICount++
				}
				if result.WatermarkPresent {
					stats[i].WatermarkCount++
				}
				break
			}
		}
	}

	total := len(scored)
	for i := range stats {
		if total > 0 {
			stats[i].Percentage = float64(stats[i].Count) / float64(total) * 100
		}
		if stats[i].Count > 0 {
			stats[i].AIRate = float64(stats[i].AICount) / float64(stats[i].Count) * 100
			stats[i].WatermarkRate = float64(stats[i].WatermarkCount) / float64(stats[i].Count) * 100
		}
	}

	return stats
}
