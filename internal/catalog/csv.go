package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/khanglvm/vidrank/internal/logging"
	"github.com/khanglvm/vidrank/internal/performance"
)

// InvalidRowPolicy decides what happens to a row with a missing or
// malformed required feature.
type InvalidRowPolicy string

const (
	// RejectInvalidRows fails the whole load on the first bad row.
	RejectInvalidRows InvalidRowPolicy = "reject"
	// SkipInvalidRows drops bad rows and logs each one.
	SkipInvalidRows InvalidRowPolicy = "skip"
)

// Valid reports whether p is a known policy. The empty policy means reject.
func (p InvalidRowPolicy) Valid() bool {
	switch p {
	case "", RejectInvalidRows, SkipInvalidRows:
		return true
	}
	return false
}

// LoadOptions controls CSV parsing.
type LoadOptions struct {
	InvalidRows InvalidRowPolicy
}

// LoadReport describes what a load did besides producing records.
type LoadReport struct {
	Rows    int // data rows read, including skipped ones
	Skipped []*MissingFeatureError

	// PerformanceOverrides counts rows whose source performance label
	// disagreed with the bucket recomputed from views-per-day.
	PerformanceOverrides int
}

// Column names after NormalizeHeader.
const (
	colTitle           = "title"
	colCategory        = "main_category"
	colViews           = "views"
	colLikes           = "likes"
	colComments        = "comments"
	colDuration        = "duration_minutes"
	colEngagement      = "engagement"
	colDaysSinceUpload = "days_since_upload"
	colViewsPerDay     = "views_per_day"
	colPerformance     = "performance"
	colUploader        = "uploader"
	colURL             = "url"
	colTags            = "tags"
	colUploadDate      = "upload_date"
)

var requiredColumns = []string{
	colTitle, colCategory, colLikes, colComments, colDuration,
	colEngagement, colDaysSinceUpload, colViews, colViewsPerDay,
}

// headerAliases maps alternative normalized names onto canonical ones.
var headerAliases = map[string]string{
	"category":             colCategory,
	"video_title":          colTitle,
	"duration":             colDuration,
	"vpd":                  colViewsPerDay,
	"performance_category": colPerformance,
	"channel":              colUploader,
	"link":                 colURL,
}

// LoadCSVFile opens path and parses it with LoadCSV.
func LoadCSVFile(path string, opts LoadOptions) ([]Video, *LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	videos, report, err := LoadCSV(f, opts)
	if err != nil {
		return nil, report, fmt.Errorf("%s: %w", path, err)
	}
	return videos, report, nil
}

// LoadCSV reads a header row followed by one video per row, in order.
// Performance is always recomputed from views-per-day. Predicted is left at
// its zero value for the prediction stage to fill in.
func LoadCSV(r io.Reader, opts LoadOptions) ([]Video, *LoadReport, error) {
	if !opts.InvalidRows.Valid() {
		return nil, nil, fmt.Errorf("unknown invalid row policy %q", opts.InvalidRows)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrDegenerateCatalog
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeHeader(h)
		if alias, ok := headerAliases[name]; ok {
			name = alias
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, nil, &MissingColumnError{
				Column: col,
				Hint:   "Required columns: " + strings.Join(requiredColumns, ", "),
			}
		}
	}

	log := logging.Component("catalog")
	report := &LoadReport{}
	var videos []Video

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, report, fmt.Errorf("failed to read row %d: %w", report.Rows+1, err)
		}
		report.Rows++

		rp := rowParser{row: report.Rows, record: record, index: index}
		v, override, ferr := rp.video()
		if ferr != nil {
			if opts.InvalidRows != SkipInvalidRows {
				return nil, report, ferr
			}
			log.Warn().
				Int("row", ferr.Row).
				Str("title", ferr.Title).
				Str("feature", ferr.Feature).
				Str("value", ferr.Value).
				Msg("skipping catalog row with invalid feature")
			report.Skipped = append(report.Skipped, ferr)
			continue
		}
		if override {
			report.PerformanceOverrides++
		}
		videos = append(videos, v)
	}

	if report.PerformanceOverrides > 0 {
		log.Warn().
			Int("rows", report.PerformanceOverrides).
			Msg("source performance labels disagree with views-per-day buckets; using recomputed buckets")
	}

	return videos, report, nil
}

type rowParser struct {
	row    int
	record []string
	index  map[string]int
	title  string
}

func (p *rowParser) cell(col string) (string, bool) {
	i, ok := p.index[col]
	if !ok || i >= len(p.record) {
		return "", false
	}
	return strings.TrimSpace(p.record[i]), true
}

func (p *rowParser) fail(col, value string) *MissingFeatureError {
	return &MissingFeatureError{Row: p.row, Title: p.title, Feature: col, Value: value}
}

func (p *rowParser) count(col string) (int64, *MissingFeatureError) {
	raw, _ := p.cell(col)
	if raw == "" {
		return 0, p.fail(col, "")
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n < 0 {
			return 0, p.fail(col, raw)
		}
		return n, nil
	}
	// Dataframe exports write integer columns with NaN holes as floats.
	// float64(math.MaxInt64) is 2^63, which does not fit in an int64.
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) || f >= math.MaxInt64 {
		return 0, p.fail(col, raw)
	}
	return int64(f), nil
}

func (p *rowParser) float(col string, allowNegative bool) (float64, *MissingFeatureError) {
	raw, _ := p.cell(col)
	if raw == "" {
		return 0, p.fail(col, "")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || (!allowNegative && f < 0) {
		return 0, p.fail(col, raw)
	}
	return f, nil
}

// video parses one row. override reports a source performance label that
// differs from the recomputed bucket.
func (p *rowParser) video() (v Video, override bool, ferr *MissingFeatureError) {
	p.title, _ = p.cell(colTitle)
	v.Title = p.title
	v.Category, _ = p.cell(colCategory)
	v.Uploader, _ = p.cell(colUploader)
	v.URL, _ = p.cell(colURL)
	v.UploadDate, _ = p.cell(colUploadDate)
	if raw, _ := p.cell(colTags); raw != "" {
		v.Tags = splitTags(raw)
	}

	if v.Views, ferr = p.count(colViews); ferr != nil {
		return
	}
	if v.Likes, ferr = p.count(colLikes); ferr != nil {
		return
	}
	if v.Comments, ferr = p.count(colComments); ferr != nil {
		return
	}
	if v.DurationMinutes, ferr = p.float(colDuration, false); ferr != nil {
		return
	}
	if v.Engagement, ferr = p.float(colEngagement, true); ferr != nil {
		return
	}
	if v.DaysSinceUpload, ferr = p.count(colDaysSinceUpload); ferr != nil {
		return
	}
	if v.ViewsPerDay, ferr = p.float(colViewsPerDay, false); ferr != nil {
		return
	}

	v.Performance = performance.Bucket(v.ViewsPerDay)
	if raw, ok := p.cell(colPerformance); ok && raw != "" {
		if src, err := performance.Parse(raw); err != nil || src != v.Performance {
			override = true
		}
	}
	return v, override, nil
}

func splitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, t := range parts {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
