package service

import (
	"sort"

	"exam_center_backend/internal/model"
)

// Band is one percentage range of the letter-grade table.
type Band struct {
	Letter     string
	MinPercent float64
	MaxPercent float64
}

// GradingScale maps a computed percentage onto a letter grade. Bands are
// kept ordered from highest to lowest so lookup and fallback are stable.
type GradingScale struct {
	bands []Band
}

func NewGradingScale(bands []Band) *GradingScale {
	ordered := make([]Band, len(bands))
	copy(ordered, bands)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].MinPercent > ordered[j].MinPercent
	})
	return &GradingScale{bands: ordered}
}

// DefaultGradingScale covers [0,100] with no gaps.
func DefaultGradingScale() *GradingScale {
	return NewGradingScale([]Band{
		{Letter: "A+", MinPercent: 90, MaxPercent: 100},
		{Letter: "A", MinPercent: 80, MaxPercent: 89},
		{Letter: "B", MinPercent: 70, MaxPercent: 79},
		{Letter: "C", MinPercent: 60, MaxPercent: 69},
		{Letter: "D", MinPercent: 50, MaxPercent: 59},
		{Letter: "F", MinPercent: 0, MaxPercent: 49},
	})
}

func GradingScaleFromRows(rows []model.GradeScale) *GradingScale {
	if len(rows) == 0 {
		return DefaultGradingScale()
	}
	bands := make([]Band, 0, len(rows))
	for _, row := range rows {
		bands = append(bands, Band{
			Letter:     row.Letter,
			MinPercent: row.MinPercent,
			MaxPercent: row.MaxPercent,
		})
	}
	return NewGradingScale(bands)
}

// LetterFor returns the letter of the band containing the percentage.
// Percentages between adjacent integer bounds (e.g. 89.5 with bands
// 80-89 / 90-100) fall into the band whose minimum they clear. A scale
// with gaps should not occur; if it does, the lowest grade is returned.
func (s *GradingScale) LetterFor(percentage float64) string {
	for _, b := range s.bands {
		if percentage >= b.MinPercent {
			return b.Letter
		}
	}
	return s.lowest()
}

func (s *GradingScale) Bands() []Band {
	out := make([]Band, len(s.bands))
	copy(out, s.bands)
	return out
}

func (s *GradingScale) lowest() string {
	if len(s.bands) == 0 {
		return ""
	}
	return s.bands[len(s.bands)-1].Letter
}
