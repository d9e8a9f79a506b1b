package model

import "time"

// Exception is the local diagnostic record written when the delivery sink
// rejects an event. It stays in the database so operators can audit what
// never reached the monitoring backend.
type Exception struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Which event failed
	EventID string `gorm:"size:36;index" json:"event_id"`
	Class   string `gorm:"size:200" json:"class"`
	Kind    string `gorm:"size:20;index" json:"kind"` // fatal | non_fatal | deprecation
	Action  string `gorm:"size:200" json:"action"`    // e.g. "template_redirect"

	// Error information
	Message  string `gorm:"type:text" json:"message"`
	Failure  string `gorm:"type:text" json:"failure"` // sink error
	Location string `gorm:"size:500" json:"location"` // file:line (optional)

	// Event context stored as JSON (optional)
	Context string `gorm:"type:text" json:"context,omitempty"`

	// Audit info
	CreatedAt time.Time `json:"created_at"`
}
