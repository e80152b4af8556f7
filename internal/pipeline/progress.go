package pipeline

import (
	"fmt"
	"time"
)

// ProgressTracker tracks progress for long-running feature batches
type ProgressTracker struct {
	totalItems  int64
	startTime   time.Time
	description string
}

// NewProgressTracker creates a new progress tracker
func NewProgressTracker(totalItems int64, description string) *ProgressTracker {
	return &ProgressTracker{
		totalItems:  totalItems,
		startTime:   time.Now(),
		description: description,
	}
}

// Progress holds current progress information
type Progress struct {
	Current     int64
	Total       int64
	Percentage  float64
	Elapsed     time.Duration
	ETA         time.Duration
	Throughput  float64 // items per second
	Description string
}

// Calculate returns current progress metrics given the processed count
func (p *ProgressTracker) Calculate(current int64) Progress {
	elapsed := time.Since(p.startTime)

	var percentage float64
	var eta time.Duration

	if p.totalItems > 0 && current > 0 {
		percentage = float64(current) / float64(p.totalItems) * 100
		if percentage > 0 && percentage < 100 {
			perSecond := float64(current) / elapsed.Seconds()
			remaining := p.totalItems - current
			if perSecond > 0 {
				eta = time.Duration(float64(remaining)/perSecond) * time.Second
			}
		}
	}

	var throughput float64
	if elapsed.Seconds() > 0 {
		throughput = float64(current) / elapsed.Seconds()
	}

	return Progress{
		Current:     current,
		Total:       p.totalItems,
		Percentage:  percentage,
		Elapsed:     elapsed.Round(time.Second),
		ETA:         eta.Round(time.Second),
		Throughput:  throughput,
		Description: p.description,
	}
}

// FormatETA formats the ETA duration in a human-readable format
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return "calculating..."
	}

	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
