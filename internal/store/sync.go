package store

import (
	"fmt"
	"time"
)

// SyncDataType represents the type of data being synced.
type SyncDataType string

const (
	SyncTypeTrades  SyncDataType = "trades"
	SyncTypeJournal SyncDataType = "journal"
)

// SyncDataTypes lists every synced data type in display order.
var SyncDataTypes = []SyncDataType{SyncTypeTrades, SyncTypeJournal}

// DefaultStaleAfter is how old cached data may get before views warn.
const DefaultStaleAfter = 12 * time.Hour

// DataFreshness represents the freshness of cached data.
type DataFreshness struct {
	DataType    SyncDataType  `json:"data_type"`
	LastUpdated time.Time     `json:"last_updated"`
	IsFresh     bool          `json:"is_fresh"`
	Age         time.Duration `json:"age"`
}

// GetDataFreshness returns the freshness status of one data type as of now.
func GetDataFreshness(s DataStore, dataType SyncDataType, staleAfter time.Duration, now time.Time) *DataFreshness {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	lastSync := s.GetLastSync(string(dataType))
	f := &DataFreshness{DataType: dataType, LastUpdated: lastSync}
	if lastSync.IsZero() {
		return f
	}
	f.Age = now.Sub(lastSync)
	f.IsFresh = f.Age < staleAfter
	return f
}

// GetAllDataFreshness returns freshness status for all data types.
func GetAllDataFreshness(s DataStore, staleAfter time.Duration, now time.Time) []*DataFreshness {
	result := make([]*DataFreshness, 0, len(SyncDataTypes))
	for _, dt := range SyncDataTypes {
		result = append(result, GetDataFreshness(s, dt, staleAfter, now))
	}
	return result
}

// MarkSynced records a successful sync of a data type.
func MarkSynced(s DataStore, dataType SyncDataType, at time.Time) error {
	if err := s.SetLastSync(string(dataType), at); err != nil {
		return fmt.Errorf("failed to mark %s as synced: %w", dataType, err)
	}
	return nil
}

// FormatFreshness returns a human-readable freshness string.
func FormatFreshness(freshness *DataFreshness) string {
	if freshness.LastUpdated.IsZero() {
		return "Never synced"
	}

	age := freshness.Age
	var ageStr string

	switch {
	case age < time.Minute:
		ageStr = "just now"
	case age < time.Hour:
		ageStr = fmt.Sprintf("%d minutes ago", int(age.Minutes()))
	case age < 24*time.Hour:
		ageStr = fmt.Sprintf("%d hours ago", int(age.Hours()))
	default:
		ageStr = fmt.Sprintf("%d days ago", int(age.Hours()/24))
	}

	if freshness.IsFresh {
		return fmt.Sprintf("Updated %s", ageStr)
	}
	return fmt.Sprintf("Stale data - updated %s", ageStr)
}
