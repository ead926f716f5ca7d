package domain

import "time"

// Category groups courses in the catalogue.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
	ParentID    *int64 `json:"parent,omitempty"`
}

// CategoryInput creates or updates a category.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description,omitempty"`
	ParentID    *int64 `json:"parent,omitempty"`
}

// Course is a catalogue entry made of modules.
type Course struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	CategoryID   *int64    `json:"category,omitempty"`
	CoverURL     string    `json:"cover,omitempty"`
	Price        string    `json:"price,omitempty"`
	IsFree       bool      `json:"is_free"`
	IsPublished  bool      `json:"is_published"`
	IsFavourite  bool      `json:"is_favourite"`
	IsEnrolled   bool      `json:"is_enrolled"`
	ModulesCount int       `json:"modules_count,omitempty"`
	Progress     float64   `json:"progress,omitempty"`
	ManagerIDs   []int64   `json:"managers,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// CourseInput creates a course.
type CourseInput struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description,omitempty"`
	CategoryID  *int64 `json:"category,omitempty" validate:"omitempty,gt=0"`
	Price       string `json:"price,omitempty" validate:"omitempty,numeric"`
	IsPublished bool   `json:"is_published"`
}

// CoursePatch partially updates a course.
type CoursePatch struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty"`
	CategoryID  *int64  `json:"category,omitempty" validate:"omitempty,gt=0"`
	Price       *string `json:"price,omitempty" validate:"omitempty,numeric"`
	IsPublished *bool   `json:"is_published,omitempty"`
}

// CourseFilter narrows course lists.
type CourseFilter struct {
	Search     string
	CategoryID int64
	Ordering   string
}

// Module is an enrollable unit of a course.
type Module struct {
	ID           int64  `json:"id"`
	CourseID     int64  `json:"course"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Position     int    `json:"order,omitempty"`
	Price        string `json:"price,omitempty"`
	IsFree       bool   `json:"is_free"`
	IsEnrolled   bool   `json:"is_enrolled"`
	LessonsCount int    `json:"lessons_count,omitempty"`
}

// ModuleInput creates or updates a module.
type ModuleInput struct {
	CourseID    int64  `json:"course" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description,omitempty"`
	Position    int    `json:"order,omitempty" validate:"gte=0"`
	Price       string `json:"price,omitempty" validate:"omitempty,numeric"`
}

// Lesson is a single piece of content inside a module.
type Lesson struct {
	ID          int64  `json:"id"`
	ModuleID    int64  `json:"module"`
	Title       string `json:"title"`
	Content     string `json:"content,omitempty"`
	VideoURL    string `json:"video_url,omitempty"`
	Position    int    `json:"order,omitempty"`
	Duration    int    `json:"duration,omitempty"`
	IsCompleted bool   `json:"is_completed"`
}

// LessonInput creates or updates a lesson.
type LessonInput struct {
	ModuleID int64  `json:"module" validate:"required,gt=0"`
	Title    string `json:"title" validate:"required,max=255"`
	Content  string `json:"content,omitempty"`
	VideoURL string `json:"video_url,omitempty" validate:"omitempty,url"`
	Position int    `json:"order,omitempty" validate:"gte=0"`
	Duration int    `json:"duration,omitempty" validate:"gte=0"`
}

// Enrollment is the backend's acknowledgement of a module enrollment.
type Enrollment struct {
	ID         int64     `json:"id,omitempty"`
	ModuleID   int64     `json:"module,omitempty"`
	UserID     int64     `json:"user,omitempty"`
	Status     string    `json:"status,omitempty"`
	EnrolledAt time.Time `json:"created_at,omitempty"`
}
