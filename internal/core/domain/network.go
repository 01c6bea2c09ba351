package domain

import "time"

// NetworkSummary describes one loaded network snapshot.
type NetworkSummary struct {
	Center   *MapCenter `json:"center"`
	Stations int        `json:"stations"`
	Detailed bool       `json:"detailed"`
	LoadedAt time.Time  `json:"loaded_at"`
}
