package audit

import (
	"encoding/json"
	"time"
)

// EventType represents the category of audit event
type EventType string

const (
	// Session events. Sessions are issued by the identity provider or the
	// login flow upstream of this service; only revocation happens here.
	EventTypeSessionRevoke EventType = "session.revoke"

	// Authorization events
	EventTypeAuthzDecision     EventType = "authz.decision"
	EventTypeAuthzAccessDenied EventType = "authz.access_denied"
	EventTypeAuthzLastOwner    EventType = "authz.last_owner_refusal"

	// Membership events
	EventTypeMemberRoleChange   EventType = "member.role_change"
	EventTypeMemberRemove       EventType = "member.remove"
	EventTypeMemberInvite       EventType = "member.invite"
	EventTypeMemberInviteAccept EventType = "member.invite_accept"
	EventTypeOwnershipTransfer  EventType = "member.ownership_transfer"

	// Organization events
	EventTypeOrgUpdate EventType = "org.update"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
)

// Event represents a single audit log entry
type Event struct {
	ID        int64       `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	EventType EventType   `json:"event_type"`
	Status    EventStatus `json:"status"`

	// Actor information
	UserID         string `json:"user_id,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`

	// Target information
	TargetUserID string `json:"target_user_id,omitempty"`
	Action       string `json:"action,omitempty"`

	// Request context
	RequestID string `json:"request_id,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`

	// Additional details
	Message  string                 `json:"message,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ToJSON converts the audit event to JSON
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON parses an audit event from JSON
func FromJSON(data []byte) (*Event, error) {
	var event Event
	err := json.Unmarshal(data, &event)
	return &event, err
}
