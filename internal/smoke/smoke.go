// Package smoke drives a running service over HTTP through the full
// check-out lifecycle: opening trips, closing them, tripping the daily
// threshold, replaying a duplicate submission, and migrating to the
// archive. It is a manual verification tool, not a unit test.
package smoke

import "time"

// Config holds configuration for one smoke run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Caller   string        // Identity sent in the X-Caller header
	Members  []string      // Member IDs to cycle through
	Category string        // Category stamped on every trip
	Trips    int           // Trips to open and close per member
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // HTTP request timeout
	LogFile  string        // Log file for run output
	Verbose  bool          // Enable verbose logging
}

// transition mirrors the JSON schema of POST /transitions.
type transition struct {
	RequestID     string `json:"request_id,omitempty"`
	MemberID      string `json:"member_id"`
	Category      string `json:"category,omitempty"`
	Action        string `json:"action"`
	ForceOverride bool   `json:"force_override,omitempty"`
	Period        string `json:"period,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// transitionResult mirrors the JSON response of POST /transitions.
type transitionResult struct {
	ConfirmationNeeded bool   `json:"confirmation_needed"`
	CountBefore        int    `json:"count_before"`
	CountAfter         int    `json:"count_after"`
	MemberName         string `json:"member_name"`
	PartitionName      string `json:"partition_name"`
	Appended           bool   `json:"appended"`
	Duplicate          bool   `json:"duplicate"`
}

// migrateResult mirrors the JSON response of POST /migrate.
type migrateResult struct {
	Migrated int `json:"migrated"`
}

// eventsResult mirrors the JSON response of GET /events.
type eventsResult struct {
	Partition string `json:"partition"`
	Events    []struct {
		UID        string `json:"uid"`
		MemberID   string `json:"member_id"`
		MemberName string `json:"member_name"`
		TimeOut    string `json:"time_out"`
		TimeBack   string `json:"time_back"`
	} `json:"events"`
}

// Stats holds run statistics.
type Stats struct {
	Submitted     int
	Opened        int
	Closed        int
	Blocked       int
	Overridden    int
	Duplicates    int
	Unmatched     int
	Failed        int
	MigratedRows  int
	ArchivedTotal int
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}
