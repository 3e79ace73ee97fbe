// Package types contains common types used across the application
package types

// TransitionRequest is the input contract for an Out or Back request.
type TransitionRequest struct {
	RequestID     string `json:"request_id,omitempty"`
	MemberID      string `json:"member_id"`
	Category      string `json:"category"`
	Action        string `json:"action"`
	ForceOverride bool   `json:"force_override,omitempty"`
	Period        string `json:"period,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// TransitionResult is the outcome of a transition request.
type TransitionResult struct {
	ConfirmationNeeded bool   `json:"confirmation_needed"`
	CountBefore        int    `json:"count_before"`
	CountAfter         int    `json:"count_after"`
	MemberName         string `json:"member_name"`
	PartitionName      string `json:"partition_name"`
	Appended           bool   `json:"appended"`
	Duplicate          bool   `json:"duplicate,omitempty"`
}
