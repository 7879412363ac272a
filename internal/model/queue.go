package model

import (
	"fmt"
	"slices"
	"time"
)

// SubStatus tracks a work item across the production floor. It is internal to
// the queue and never leaks into the order's customer-facing status.
type SubStatus string

const (
	SubPending        SubStatus = "pending"
	SubFabricSourcing SubStatus = "fabric-sourcing"
	SubCutting        SubStatus = "cutting"
	SubStitching      SubStatus = "stitching"
	SubFinishing      SubStatus = "finishing"
	SubCompleted      SubStatus = "completed"
	SubOnHold         SubStatus = "on-hold"
)

var allSubStatuses = []SubStatus{
	SubPending,
	SubFabricSourcing,
	SubCutting,
	SubStitching,
	SubFinishing,
	SubCompleted,
	SubOnHold,
}

func (s SubStatus) Valid() bool {
	return slices.Contains(allSubStatuses, s)
}

// BundleItem is the ItemIndex of a queue entry that covers all catalog pieces
// of an order together. Custom pieces always get their own entry.
const BundleItem = -1

// TailorAssignment records who holds a work item and since when.
type TailorAssignment struct {
	TailorID            string     `json:"tailor_id"`
	AssignedAt          time.Time  `json:"assigned_at"`
	EstimatedCompletion *time.Time `json:"estimated_completion,omitempty"`
}

type NoteKind string

const (
	NoteStatus NoteKind = "status"
	NoteIssue  NoteKind = "issue"
	NoteInfo   NoteKind = "info"
)

// QueueNote is an append-only remark on a work item.
type QueueNote struct {
	AuthorID   string    `json:"author_id"`
	AuthorRole Role      `json:"author_role"`
	Kind       NoteKind  `json:"kind"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// QueueItem is one unit of work on the production board. Items are spawned
// when an order's payment is verified and archived when the order reaches a
// terminal status; archival releases the tailor's capacity slot.
type QueueItem struct {
	ID          string            `json:"id"`
	OrderID     string            `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	ItemIndex   int               `json:"item_index"`
	Description string            `json:"description"`
	Status      SubStatus         `json:"status"`
	Assignment  *TailorAssignment `json:"assignment,omitempty"`
	Notes       []QueueNote       `json:"notes"`
	Archived    bool              `json:"archived"`
	ArchivedAt  *time.Time        `json:"archived_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Version     int64             `json:"version"`
}

// BuildQueueItems derives the work-item list for an order: one entry per
// custom piece, plus a single bundle entry if any catalog pieces exist.
func BuildQueueItems(o *Order, now time.Time) []*QueueItem {
	var items []*QueueItem
	catalog := 0
	for i, it := range o.Items {
		switch it.Kind {
		case ItemCustom:
			items = append(items, newQueueItem(o, i, fmt.Sprintf("%s (custom)", it.Name), now))
		case ItemCatalog:
			catalog += it.Quantity
		}
	}
	if catalog > 0 {
		items = append(items, newQueueItem(o, BundleItem, fmt.Sprintf("%d catalog piece(s)", catalog), now))
	}
	return items
}

func newQueueItem(o *Order, index int, desc string, now time.Time) *QueueItem {
	return &QueueItem{
		ID:          NewID(),
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		ItemIndex:   index,
		Description: desc,
		Status:      SubPending,
		Notes:       []QueueNote{},
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
}

func (q *QueueItem) Clone() *QueueItem {
	c := *q
	c.Notes = slices.Clone(q.Notes)
	if q.Assignment != nil {
		a := *q.Assignment
		if q.Assignment.EstimatedCompletion != nil {
			t := *q.Assignment.EstimatedCompletion
			a.EstimatedCompletion = &t
		}
		c.Assignment = &a
	}
	if q.ArchivedAt != nil {
		t := *q.ArchivedAt
		c.ArchivedAt = &t
	}
	return &c
}

// Tailor is a production worker with a bounded number of concurrent work
// items. ActiveAssignments is a ledger maintained by the store under the
// capacity rule, never set directly.
type Tailor struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Phone             string    `json:"phone,omitempty"`
	Specialty         string    `json:"specialty,omitempty"`
	ActiveAssignments int       `json:"active_assignments"`
	CapacityLimit     int       `json:"capacity_limit"`
	CreatedAt         time.Time `json:"created_at"`
}

func (t *Tailor) Clone() *Tailor {
	c := *t
	return &c
}

// Available reports whether the tailor can take one more work item.
func (t *Tailor) Available() bool {
	return t.ActiveAssignments < t.CapacityLimit
}
