/*
Package catalog holds the video catalog: the record type, the immutable
ordered Store built once per load, and the CSV source that produces raw
records.

Catalog order is significant. It is the order rows appear in the source and
it breaks ties everywhere results are ranked.
*/
package catalog

import (
	"github.com/khanglvm/vidrank/internal/performance"
)

// Video is one catalog entry.
type Video struct {
	// Title and Category are the only fields keyword filtering looks at.
	Title    string `json:"title"`
	Category string `json:"category"`

	// Descriptive fields carried through from the scraper output when present.
	Uploader   string   `json:"uploader,omitempty"`
	URL        string   `json:"url,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	UploadDate string   `json:"upload_date,omitempty"`

	Views           int64   `json:"views"`
	Likes           int64   `json:"likes"`
	Comments        int64   `json:"comments"`
	DurationMinutes float64 `json:"duration_minutes"`
	Engagement      float64 `json:"engagement"`
	DaysSinceUpload int64   `json:"days_since_upload"`
	ViewsPerDay     float64 `json:"views_per_day"`

	// Performance is always derived from ViewsPerDay at load time.
	Performance performance.Category `json:"performance"`

	// Predicted is written once by the prediction stage.
	Predicted performance.Category `json:"predicted_performance"`
}

// Features is the classifier input vector, in fixed order:
// likes, comments, duration-minutes, engagement, days-since-upload, views-per-day.
type Features [6]float64

// FeatureNames names each position of Features.
var FeatureNames = [6]string{
	"likes",
	"comments",
	"duration_minutes",
	"engagement",
	"days_since_upload",
	"views_per_day",
}

// Features returns the classifier feature vector for v.
func (v Video) Features() Features {
	return Features{
		float64(v.Likes),
		float64(v.Comments),
		v.DurationMinutes,
		v.Engagement,
		float64(v.DaysSinceUpload),
		v.ViewsPerDay,
	}
}
