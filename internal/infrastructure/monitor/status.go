package monitor

import "time"

// Status is the outcome of one health check. Probes that were not
// configured are left zero.
type Status struct {
	Host          bool      `json:"host"`
	OpenDocuments int       `json:"open_documents"`
	Cache         string    `json:"cache"`
	Store         bool      `json:"store"`
	Snapshots     int       `json:"snapshots"`
	Redis         bool      `json:"redis"`
	Errors        []string  `json:"errors,omitempty"`
	LastCheck     time.Time `json:"last_check"`
}

// Healthy reports whether the host and the configured cache answered.
func (s Status) Healthy() bool {
	return len(s.Errors) == 0
}
