/*
Package scoring computes the composite 0-100 "worth watching" score.

	total = (rankWeight(predicted)/3 * 0.7 + views/maxViews * 0.15 + likes/maxLikes * 0.15) * 100

rounded to two decimals. Maxima are always the whole-catalog maxima, never
those of a filtered subset. A zero maximum makes its sub-score zero.
*/
package scoring

import (
	"strconv"

	"github.com/khanglvm/vidrank/internal/catalog"
	"github.com/khanglvm/vidrank/internal/performance"
)

// Policy weights. They sum to 1.
const (
	PerformanceWeight = 0.7
	ViewsWeight       = 0.15
	LikesWeight       = 0.15
)

// maxRankWeight normalizes RankWeight into [1/3, 1].
const maxRankWeight = 3.0

// Breakdown exposes the sub-scores behind a total.
type Breakdown struct {
	Performance float64 `json:"performance"`
	Views       float64 `json:"views"`
	Likes       float64 `json:"likes"`
	Total       float64 `json:"total"`
}

// Score returns the composite score of v against catalog maxima.
func Score(v catalog.Video, maxViews, maxLikes int64) float64 {
	return Explain(v, maxViews, maxLikes).Total
}

// ScoreIn scores v against the maxima of store.
func ScoreIn(store *catalog.Store, v catalog.Video) float64 {
	return Score(v, store.MaxViews(), store.MaxLikes())
}

// Explain returns the sub-scores (each in [0, 1]) and the rounded total.
func Explain(v catalog.Video, maxViews, maxLikes int64) Breakdown {
	b := Breakdown{
		Performance: float64(v.Predicted.RankWeight()) / maxRankWeight,
		Views:       ratio(v.Views, maxViews),
		Likes:       ratio(v.Likes, maxLikes),
	}
	raw := (b.Performance*PerformanceWeight + b.Views*ViewsWeight + b.Likes*LikesWeight) * 100
	b.Total = Round2(raw)
	return b
}

// Round2 rounds the exact binary value of x to two decimals, breaking exact
// ties to even. Scaling by 100 first would push values like 75.62499... up
// to a tie and round them away from zero.
func Round2(x float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 2, 64), 64)
	return r
}

func ratio(n, max int64) float64 {
	if max == 0 {
		return 0
	}
	return float64(n) / float64(max)
}

// Floor is the lowest score any record can get: a Low prediction with zero
// views and likes.
var Floor = Round2(float64(performance.Low.RankWeight()) / maxRankWeight * PerformanceWeight * 100)
