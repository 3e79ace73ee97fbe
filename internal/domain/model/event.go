// Package model contains domain models passed between layers.
package model

import "strings"

// Partition identifies one of the working event logs or the archive.
type Partition string

// Partition names. FirstHalf and SecondHalf are the two working logs for
// the operating day; Archive is the append-only historical store.
const (
	PartitionFirstHalf  Partition = "first_half"
	PartitionSecondHalf Partition = "second_half"
	PartitionArchive    Partition = "archive"
)

// Other returns the sibling working partition. Archive has no sibling.
func (p Partition) Other() Partition {
	switch p {
	case PartitionFirstHalf:
		return PartitionSecondHalf
	case PartitionSecondHalf:
		return PartitionFirstHalf
	default:
		return p
	}
}

// Action is the requested transition for a member.
type Action string

// Supported transitions.
const (
	ActionOut  Action = "Out"
	ActionBack Action = "Back"
)

// Event represents one check-out/check-in record.
// Date is the operating day (yyyy-mm-dd); TimeOut/TimeBack are wall-clock
// times (hh:mm:ss). An empty TimeBack means the trip is still open.
type Event struct {
	UID        string `json:"uid"` // storage row uid, assigned on append
	Date       string `json:"date"`
	MemberID   string `json:"member_id"`
	MemberName string `json:"member_name"`
	Category   string `json:"category"`
	ActorName  string `json:"actor_name"`
	TimeOut    string `json:"time_out"`
	TimeBack   string `json:"time_back"`
	Period     string `json:"period,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// MatchKey is the tuple used to find the open event for a Back request.
type MatchKey struct {
	MemberName string
	MemberID   string
	Category   string
	ActorName  string
}

// Key returns the event's match key.
func (e Event) Key() MatchKey {
	return MatchKey{
		MemberName: e.MemberName,
		MemberID:   e.MemberID,
		Category:   e.Category,
		ActorName:  e.ActorName,
	}
}

// Open reports whether the event has been opened but not yet closed.
func (e Event) Open() bool {
	return e.TimeOut != "" && e.TimeBack == ""
}

// Blank reports whether every data field is empty. Blank rows are
// filtered during archive migration.
func (e Event) Blank() bool {
	return strings.TrimSpace(e.MemberID) == "" &&
		strings.TrimSpace(e.MemberName) == "" &&
		strings.TrimSpace(e.Category) == "" &&
		strings.TrimSpace(e.ActorName) == "" &&
		strings.TrimSpace(e.TimeOut) == "" &&
		strings.TrimSpace(e.TimeBack) == ""
}

// MergeAnnotations folds Back-time annotations into the event.
// Period is first-write-wins; Notes are appended with a separator.
func (e *Event) MergeAnnotations(period, notes string) {
	if period != "" && e.Period == "" {
		e.Period = period
	}
	if notes != "" {
		if e.Notes == "" {
			e.Notes = notes
		} else {
			e.Notes = e.Notes + "; " + notes
		}
	}
}
