package model

import "time"

type Kind string

const (
	KindDocument  Kind = "document"
	KindBoard     Kind = "board"
	KindCalendar  Kind = "calendar"
	KindGuestbook Kind = "guestbook"
)

func (k Kind) Valid() bool {
	switch k {
	case KindDocument, KindBoard, KindCalendar, KindGuestbook:
		return true
	default:
		return false
	}
}

// Editable reports whether the entity's content is an ordered collection.
func (k Kind) Editable() bool {
	return k == KindBoard || k == KindCalendar
}

// Variant selects the kanban or calendar flavour of an ordered collection.
type Variant string

const (
	VariantKanban   Variant = "kanban"
	VariantCalendar Variant = "calendar"
)

func VariantForKind(k Kind) (Variant, bool) {
	switch k {
	case KindBoard:
		return VariantKanban, true
	case KindCalendar:
		return VariantCalendar, true
	default:
		return "", false
	}
}

// Color is a light/dark color pair (hex strings).
type Color struct {
	Light string `json:"light"`
	Dark  string `json:"dark"`
}

func (c *Color) Equal(o *Color) bool {
	if c == nil || o == nil {
		return c == nil && o == nil
	}
	return c.Light == o.Light && c.Dark == o.Dark
}

type Priority int

const (
	PriorityNone   Priority = 0
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 2
	PriorityLow    Priority = 3
)

func (p Priority) Valid() bool {
	return p >= PriorityNone && p <= PriorityLow
}

// ItemRef places a foreign document inside a container. Color, Priority and Memo
// belong to the placement, not to the referenced document.
type ItemRef struct {
	ID       string   `json:"_id"`
	Color    *Color   `json:"color,omitempty"`
	Priority Priority `json:"priority,omitempty"`
	Memo     string   `json:"memo,omitempty"`
}

// Bare reports whether the placement carries no attributes.
func (r ItemRef) Bare() bool {
	return r.Color == nil && r.Priority == PriorityNone && r.Memo == ""
}

// Container is a kanban column or a calendar entry.
type Container struct {
	ID    string    `json:"_id"`
	Name  string    `json:"name"`
	Items []ItemRef `json:"content"`
	Color *Color    `json:"color,omitempty"`

	// Calendar variant only.
	CalendarIndex *int `json:"calendarIndex,omitempty"`
	CalendarMonth *int `json:"calendarMonth,omitempty"`
}

// Board is the ordered collection of containers persisted as an entity's content.
type Board []Container

type Entity struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	OwnerID string `json:"ownerId"`
	Title   string `json:"title"`

	Content    *string `json:"content,omitempty"`
	Icon       *string `json:"icon,omitempty"`
	CoverImage *string `json:"coverImage,omitempty"`

	// Documents can nest under another document.
	ParentID *string `json:"parentId,omitempty"`
	// Boards can be linked to a calendar.
	ConnectedCalendarID *string `json:"connectedCalendarId,omitempty"`

	Archived  bool `json:"archived"`
	Published bool `json:"published"`

	Comments []GuestbookComment `json:"comments,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Readable reports whether a non-owner may read the entity.
func (e Entity) Readable() bool {
	return e.Published && !e.Archived
}

func (e Entity) ContentString() string {
	if e.Content == nil {
		return ""
	}
	return *e.Content
}

// EntityPatch carries the fields of a partial update. Nil fields are left unchanged.
type EntityPatch struct {
	Title               *string `json:"title,omitempty"`
	Content             *string `json:"content,omitempty"`
	Icon                *string `json:"icon,omitempty"`
	ClearIcon           bool    `json:"clearIcon,omitempty"`
	CoverImage          *string `json:"coverImage,omitempty"`
	ParentID            *string `json:"parentId,omitempty"`
	ConnectedCalendarID *string `json:"connectedCalendarId,omitempty"`
	Published           *bool   `json:"published,omitempty"`
	Archived            *bool   `json:"archived,omitempty"`
}

func (p EntityPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Icon == nil && !p.ClearIcon &&
		p.CoverImage == nil && p.ParentID == nil && p.ConnectedCalendarID == nil &&
		p.Published == nil && p.Archived == nil
}

// Apply copies the patch onto e and reports whether anything changed.
func (p EntityPatch) Apply(e *Entity) bool {
	changed := false
	setStr := func(dst **string, v *string) {
		if v == nil {
			return
		}
		if *dst != nil && **dst == *v {
			return
		}
		s := *v
		*dst = &s
		changed = true
	}
	if p.Title != nil && e.Title != *p.Title {
		e.Title = *p.Title
		changed = true
	}
	setStr(&e.Content, p.Content)
	setStr(&e.Icon, p.Icon)
	if p.ClearIcon && e.Icon != nil {
		e.Icon = nil
		changed = true
	}
	setStr(&e.CoverImage, p.CoverImage)
	setStr(&e.ParentID, p.ParentID)
	setStr(&e.ConnectedCalendarID, p.ConnectedCalendarID)
	if p.Published != nil && e.Published != *p.Published {
		e.Published = *p.Published
		changed = true
	}
	if p.Archived != nil && e.Archived != *p.Archived {
		e.Archived = *p.Archived
		changed = true
	}
	return changed
}

type GuestbookComment struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Content      string `json:"content"`
	Time         string `json:"time"`
	PasswordHash string `json:"passwordHash,omitempty"`
}

// ChangeEvent is published whenever an entity is written.
type ChangeEvent struct {
	OwnerID  string    `json:"ownerId"`
	Kind     Kind      `json:"kind"`
	EntityID string    `json:"entityId"`
	Type     string    `json:"type"`
	TS       time.Time `json:"ts"`
}
