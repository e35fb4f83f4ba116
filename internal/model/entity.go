package model

import "time"

type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusInProgress RequestStatus = "in-progress"
	RequestStatusCompleted  RequestStatus = "completed"
)

// StatusAll is the filter value that keeps every request.
const StatusAll = "all"

var RequestStatuses = []RequestStatus{RequestStatusPending, RequestStatusInProgress, RequestStatusCompleted}

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusInProgress, RequestStatusCompleted:
		return true
	}
	return false
}

// Open reports whether the request still needs attention.
func (s RequestStatus) Open() bool {
	return s != RequestStatusCompleted
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Role is both the session role and the sender of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type DeliveryStatus string

const (
	DeliverySent      DeliveryStatus = "sent"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryRead      DeliveryStatus = "read"
)

func (d DeliveryStatus) rank() int {
	switch d {
	case DeliverySent:
		return 1
	case DeliveryDelivered:
		return 2
	case DeliveryRead:
		return 3
	}
	return 0
}

// Advance returns the later of d and next. Delivery never moves backwards.
func (d DeliveryStatus) Advance(next DeliveryStatus) DeliveryStatus {
	if next.rank() > d.rank() {
		return next
	}
	return d
}

type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name         string    `gorm:"type:varchar(255)" json:"name"`
	Route        string    `gorm:"type:varchar(128)" json:"route,omitempty"`
	OpenRequests int       `gorm:"-" json:"open_requests"`
	LastActive   time.Time `json:"last_active"`
}

type Message struct {
	ID        string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	RequestID string         `gorm:"type:varchar(64);index;not null" json:"-"`
	Seq       int            `gorm:"not null" json:"-"`
	Text      string         `gorm:"type:text;not null" json:"text"`
	Sender    Role           `gorm:"type:varchar(16);not null" json:"sender"`
	Timestamp time.Time      `gorm:"column:sent_at;not null" json:"timestamp"`
	Status    DeliveryStatus `gorm:"type:varchar(16)" json:"status,omitempty"`
}

type Request struct {
	ID          string        `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID      string        `gorm:"type:varchar(64);index;not null" json:"user_id"`
	Title       string        `gorm:"type:varchar(255);not null" json:"title"`
	Description string        `gorm:"type:text;not null" json:"description"`
	Status      RequestStatus `gorm:"type:varchar(32);index;not null" json:"status"`
	Priority    Priority      `gorm:"type:varchar(32);index" json:"priority"`
	Position    int64         `gorm:"index;not null" json:"-"`
	CreatedAt   time.Time     `json:"created_at"`
	Messages    []Message     `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"messages"`
}

// Clone returns a copy that shares no message storage with r.
func (r Request) Clone() Request {
	out := r
	out.Messages = append([]Message(nil), r.Messages...)
	return out
}

// LastMessage returns the newest message of the thread, if any.
func (r Request) LastMessage() (Message, bool) {
	if len(r.Messages) == 0 {
		return Message{}, false
	}
	return r.Messages[len(r.Messages)-1], true
}
