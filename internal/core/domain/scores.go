package domain

import "time"

// DomainInfo describes one knowledge domain and the files mapped to it.
type DomainInfo struct {
	Name  string   `json:"name"`
	Color string   `json:"color"`
	Files []string `json:"files"`
}

// DomainMapping maps domain keys to their definitions.
type DomainMapping struct {
	Domains map[string]DomainInfo `json:"domains"`
}

// DomainsForFile returns the keys of all domains a filename belongs to.
func (m *DomainMapping) DomainsForFile(filename string) []string {
	var keys []string
	for key, d := range m.Domains {
		for _, f := range d.Files {
			if f == filename {
				keys = append(keys, key)
				break
			}
		}
	}
	return keys
}

// DomainScore records one quiz session's result for a domain.
type DomainScore struct {
	Domain            string    `json:"domain"`
	SessionID         string    `json:"session_id"`
	UserID            string    `json:"user_id,omitempty"`
	Filename          string    `json:"filename"`
	Score             float64   `json:"score"`
	TotalQuestions    int       `json:"total_questions"`
	AnsweredQuestions int       `json:"answered_questions"`
	AverageScore      float64   `json:"average_score"`
	Timestamp         time.Time `json:"timestamp"`
}

// DomainScores is the persisted collection of all domain scores.
type DomainScores struct {
	Scores      []DomainScore `json:"scores"`
	LastUpdated *time.Time    `json:"last_updated"`
}

// DomainStat aggregates a domain's history for the stats view.
type DomainStat struct {
	Key           string     `json:"key"`
	Name          string     `json:"name"`
	Color         string     `json:"color"`
	AverageScore  float64    `json:"average_score"`
	TotalSessions int        `json:"total_sessions"`
	LastSession   *time.Time `json:"last_session"`
}
