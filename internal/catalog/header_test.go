package catalog

import "testing"

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Title", "title"},
		{"Main Category", "main_category"},
		{"Duration (Minutes)", "duration_minutes"},
		{"Days Since Upload", "days_since_upload"},
		{"viewsPerDay", "views_per_day"},
		{"views_per_day", "views_per_day"},
		{"  Views-Per-Day  ", "views_per_day"},
		{"\ufeffTitle", "title"},
		{"URL", "url"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeHeader(tt.input); got != tt.want {
				t.Errorf("NormalizeHeader(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
