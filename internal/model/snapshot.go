package model

import "time"

// ReadingStatus is the outcome of a single metric read.
type ReadingStatus string

const (
	ReadingOK      ReadingStatus = "ok"
	ReadingFailed  ReadingStatus = "failed"
	ReadingSkipped ReadingStatus = "skipped"
)

// MetricReading is one getter result. Raw holds base units as a decimal string.
type MetricReading struct {
	Field   string        `json:"field"`
	Method  string        `json:"method"`
	Raw     string        `json:"raw,omitempty"`
	Display string        `json:"display,omitempty"`
	Status  ReadingStatus `json:"status"`
	Error   string        `json:"error,omitempty"`
}

// Snapshot is the structured result of one dashboard refresh.
type Snapshot struct {
	Contract   string          `json:"contract"`
	Mode       string          `json:"mode"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Readings   []MetricReading `json:"readings"`
	Error      string          `json:"error,omitempty"`
}

// Succeeded returns the readings that completed successfully.
func (s Snapshot) Succeeded() []MetricReading {
	out := make([]MetricReading, 0, len(s.Readings))
	for _, r := range s.Readings {
		if r.Status == ReadingOK {
			out = append(out, r)
		}
	}
	return out
}

// Complete reports whether every reading succeeded.
func (s Snapshot) Complete() bool {
	for _, r := range s.Readings {
		if r.Status != ReadingOK {
			return false
		}
	}
	return len(s.Readings) > 0
}
