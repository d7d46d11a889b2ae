package activities

import (
	"errors"
	"time"
)

// Activity identifies an event and its person in charge. Outbound ledger
// entries reference activities; recording an outbound upserts one.
type Activity struct {
	ID        int64
	Name      string
	PIC       string
	CreatedAt time.Time
}

// Usage is one outbound entry attributed to an activity.
type Usage struct {
	EntryID     int64
	ProductID   int64
	ProductName string
	Qty         int64
	OccurredAt  time.Time
}

// Detail is an activity joined with its outbound usage.
type Detail struct {
	Activity
	Usages []Usage
}

var ErrNotFound = errors.New("activities: activity not found")
