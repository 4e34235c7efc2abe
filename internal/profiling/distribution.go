package profiling

import (
	"math"
	"sort"

	"goattend/domain/roster"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// TierCounts buckets attendance percentages by the report colour tiers
type TierCounts struct {
	Critical int `json:"critical"` // below 65
	Low      int `json:"low"`      // 65 up to 75
	OK       int `json:"ok"`       // 75 and above
}

// AttendanceDistribution summarises attendance percentages across records
type AttendanceDistribution struct {
	Count  int        `json:"count"`
	Mean   float64    `json:"mean"`
	Median float64    `json:"median"`
	StdDev float64    `json:"std_dev"`
	Min    float64    `json:"min"`
	Max    float64    `json:"max"`
	Q25    float64    `json:"q25"`
	Q75    float64    `json:"q75"`
	Tiers  TierCounts `json:"tiers"`
}

// DistributionAnalyzer handles attendance distribution summaries
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

// tierDividers are the histogram bin edges; values outside 0..100 still land in a bin.
var tierDividers = []float64{math.Inf(-1), roster.CriticalThreshold, roster.LowThreshold, math.Inf(1)}

// AnalyzeDistribution summarises the percentages. An empty input yields the zero summary.
func (da *DistributionAnalyzer) AnalyzeDistribution(percentages []float64) (AttendanceDistribution, error) {
	var dist AttendanceDistribution
	if len(percentages) == 0 {
		return dist, nil
	}

	data := stats.Float64Data(percentages)
	var err error

	if dist.Mean, err = stats.Mean(data); err != nil {
		return dist, err
	}
	if dist.Median, err = stats.Median(data); err != nil {
		return dist, err
	}
	if dist.StdDev, err = stats.StandardDeviation(data); err != nil {
		return dist, err
	}
	if dist.Min, err = stats.Min(data); err != nil {
		return dist, err
	}
	if dist.Max, err = stats.Max(data); err != nil {
		return dist, err
	}

	// Quartiles for the dashboard box plot
	if dist.Q25, err = stats.Percentile(data, 25); err != nil {
		return dist, err
	}
	if dist.Q75, err = stats.Percentile(data, 75); err != nil {
		return dist, err
	}

	sorted := make([]float64, len(percentages))
	copy(sorted, percentages)
	sort.Float64s(sorted)
	counts := stat.Histogram(nil, tierDividers, sorted, nil)

	dist.Count = len(percentages)
	dist.Tiers = TierCounts{
		Critical: int(counts[0]),
		Low:      int(counts[1]),
		OK:       int(counts[2]),
	}
	return dist, nil
}
