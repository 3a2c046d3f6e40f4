package models

import "time"

// Assignment is a loan of one book copy to one user. Only the return
// operation mutates it; ReturnDate is non-nil iff Returned is true.
type Assignment struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	BookID     string     `json:"book_id"`
	IssuedDate time.Time  `json:"issued_date"`
	DueDate    time.Time  `json:"due_date"`
	Rent       float64    `json:"rent"`
	Returned   bool       `json:"returned"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
}

type AssignmentStatusFilter string

const (
	FilterAll      AssignmentStatusFilter = "all"
	FilterActive   AssignmentStatusFilter = "active"
	FilterReturned AssignmentStatusFilter = "returned"
)

func (f AssignmentStatusFilter) Valid() bool {
	switch f {
	case FilterAll, FilterActive, FilterReturned:
		return true
	}
	return false
}

func (f AssignmentStatusFilter) Match(a Assignment) bool {
	switch f {
	case FilterActive:
		return !a.Returned
	case FilterReturned:
		return a.Returned
	}
	return true
}

// AssignmentFilter with an empty UserID spans all borrowers.
type AssignmentFilter struct {
	UserID string
	Status AssignmentStatusFilter
}

type LoanStatus string

const (
	StatusOK       LoanStatus = "ok"
	StatusDueSoon  LoanStatus = "due_soon"
	StatusOverdue  LoanStatus = "overdue"
	StatusReturned LoanStatus = "returned"
)

// Unknown is the display value for a reference that no longer resolves.
const Unknown = "Unknown"

type BookRef struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AssignmentView is an Assignment with its references resolved for display.
type AssignmentView struct {
	Assignment
	Book          BookRef    `json:"book"`
	User          UserRef    `json:"user"`
	DaysRemaining int        `json:"days_remaining"`
	Status        LoanStatus `json:"status"`
}
