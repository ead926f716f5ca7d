package domain

import "time"

// CalendarEvent is a scheduled lesson, webinar or deadline.
type CalendarEvent struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Kind        string    `json:"type,omitempty"`
	CourseID    *int64    `json:"course,omitempty"`
	LessonID    *int64    `json:"lesson,omitempty"`
	StartsAt    time.Time `json:"start"`
	EndsAt      time.Time `json:"end,omitempty"`
	Location    string    `json:"location,omitempty"`
	URL         string    `json:"url,omitempty"`
}

// EventFilter narrows calendar event lists. Dates are YYYY-MM-DD.
type EventFilter struct {
	From     string `validate:"omitempty,datetime=2006-01-02"`
	To       string `validate:"omitempty,datetime=2006-01-02"`
	CourseID int64  `validate:"gte=0"`
}

// Banner is a promotional banner shown on the home screen.
type Banner struct {
	ID       int64  `json:"id"`
	Title    string `json:"title,omitempty"`
	ImageURL string `json:"image"`
	LinkURL  string `json:"link,omitempty"`
	Position int    `json:"order,omitempty"`
	IsActive bool   `json:"is_active"`
}
