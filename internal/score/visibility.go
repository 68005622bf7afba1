package score

import "fmt"

// Per-item visibility weights.
const (
	visibleWeight    = 0.30
	positionWeight   = 0.25
	competitorWeight = 0.20
)

// PositionScore converts a 1-based rank into a score. Rank 1 is always
// 100; other ranks interpolate linearly as (1 - rank/total) * 100.
func PositionScore(rank, totalResults int) (float64, error) {
	if totalResults < 1 {
		return 0, fmt.Errorf("%w: totalResults must be at least 1, got %d", ErrInvalidInput, totalResults)
	}
	if rank < 1 {
		return 0, fmt.Errorf("%w: rank must be at least 1, got %d", ErrInvalidInput, rank)
	}
	if rank > totalResults {
		return 0, fmt.Errorf("%w: rank %d exceeds totalResults %d", ErrInvalidInput, rank, totalResults)
	}
	if rank == 1 {
		return MaxScore, nil
	}
	return finalize((1 - float64(rank)/float64(totalResults)) * 100), nil
}

// Item is the visibility of the site for one tracked query.
type Item struct {
	Visible         bool
	Rank            int
	TotalResults    int
	CompetitorScore float64
}

// ItemVisibility computes
//
//	Visible * [(Visible*100*0.30) + (PositionScore*0.25) + (CompetitorScore*0.20)]
//
// A not-visible item scores exactly 0 and its other fields are ignored.
func ItemVisibility(item Item) (float64, error) {
	if !item.Visible {
		return 0, nil
	}
	if err := ValidatePercent("competitorScore", item.CompetitorScore); err != nil {
		return 0, err
	}
	pos, err := PositionScore(item.Rank, item.TotalResults)
	if err != nil {
		return 0, err
	}
	const v = 1.0
	return finalize(v * ((v * 100 * visibleWeight) + (pos * positionWeight) + (item.CompetitorScore * competitorWeight))), nil
}

// Visibility averages ItemVisibility over all tracked queries. No items
// yields 0.
func Visibility(items []Item) (float64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	scores := make([]float64, 0, len(items))
	for _, item := range items {
		s, err := ItemVisibility(item)
		if err != nil {
			return 0, err
		}
		scores = append(scores, s)
	}
	return finalize(Mean(scores...)), nil
}
