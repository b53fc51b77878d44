package analytics

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/darkmind/darkmind/internal/models"
)

// Report is a point-in-time summary of the whole performance history.
type Report struct {
	TotalVideos int64                      `json:"total_videos"`
	PumpedCount int64                      `json:"pumped_count"`
	AvgViews    float64                    `json:"avg_views"`
	BestViews   int64                      `json:"best_views"`
	TopHours    []models.HourlyPerformance `json:"top_hours"`
	Formats     []models.FormatPerformance `json:"formats"`
}

// Summary builds a Report from the store. Individual query failures are
// logged and leave their section empty rather than failing the report.
func (s *Store) Summary(ctx context.Context) *Report {
	report := &Report{}

	if totals, err := s.videos.GetTotals(ctx); err != nil {
		s.logger.Error("Summary totals query failed", zap.Error(err))
	} else {
		report.TotalVideos = totals.Count
		report.AvgViews = totals.AvgViews
		report.BestViews = totals.MaxViews
	}

	if pumped, err := s.videos.CountPumped(ctx); err != nil {
		s.logger.Error("Summary pumped count failed", zap.Error(err))
	} else {
		report.PumpedCount = pumped
	}

	if hours, err := s.hours.TopByViews(ctx, 3); err != nil {
		s.logger.Error("Summary top hours failed", zap.Error(err))
	} else {
		report.TopHours = hours
	}

	if formats, err := s.formats.All(ctx); err != nil {
		s.logger.Error("Summary formats failed", zap.Error(err))
	} else {
		report.Formats = formats
	}

	return report
}

// Render formats the report for terminal output.
func (r *Report) Render() string {
	var b strings.Builder
	rule := strings.Repeat("=", 55)

	fmt.Fprintf(&b, "%s\n  ANALYTICS SUMMARY\n%s\n", rule, rule)
	fmt.Fprintf(&b, "   Total videos created : %d\n", r.TotalVideos)
	fmt.Fprintf(&b, "   Pumped (>%d views)   : %d\n", models.PumpThreshold, r.PumpedCount)
	if r.AvgViews > 0 {
		fmt.Fprintf(&b, "   Avg views            : %.0f\n", r.AvgViews)
		fmt.Fprintf(&b, "   Best video           : %d views\n", r.BestViews)
	}

	if len(r.TopHours) > 0 {
		hours := make([]string, 0, len(r.TopHours))
		for _, h := range r.TopHours {
			hours = append(hours, fmt.Sprintf("%02d:00", h.Hour))
		}
		fmt.Fprintf(&b, "   Best post hours      : %s\n", strings.Join(hours, ", "))
	}

	if len(r.Formats) > 0 {
		b.WriteString("\n   Format performance:\n")
		for _, f := range r.Formats {
			fmt.Fprintf(&b, "     %-22s avg %.0f views  (%d videos)\n",
				f.Format, f.AvgViews, f.TotalVideos)
		}
	}

	b.WriteString(rule + "\n")
	return b.String()
}
