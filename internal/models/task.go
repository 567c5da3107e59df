package models

import "time"

const (
	TaskStatusOpen       = "open"
	TaskStatusAssigned   = "assigned"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusCancelled  = "cancelled"
)

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	Budget      float64   `json:"budget"`
	Status      string    `json:"status"`
	PostedBy    string    `json:"postedBy"`
	OfferCount  int       `json:"offerCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TaskDetail расширяет Task полями, которые сервер отдает только
// на GET /tasks/{id}.
type TaskDetail struct {
	Task
	Offers   []Offer     `json:"offers,omitempty"`
	Poster   UserProfile `json:"poster,omitempty"`
	Deadline *time.Time  `json:"deadline,omitempty"`
}

type TaskPage struct {
	Tasks      []Task     `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}

type CreateTaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Location    string   `json:"location"`
	Budget      float64  `json:"budget"`
	Tags        []string `json:"tags,omitempty"`
}

type Offer struct {
	ID            string    `json:"id"`
	TaskID        string    `json:"taskId"`
	TaskerID      string    `json:"taskerId"`
	Price         float64   `json:"price"`
	Description   string    `json:"description"`
	EstimatedTime string    `json:"estimated_time"`
	CreatedAt     time.Time `json:"createdAt"`
}

type OfferRequest struct {
	Price         float64 `json:"price"`
	Description   string  `json:"description"`
	EstimatedTime string  `json:"estimated_time"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	Icon string `json:"icon,omitempty"`
}
