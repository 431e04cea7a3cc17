package model

import "time"

// Task represents a single todo item belonging to exactly one project
type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	ProjectID string    `json:"projectId"`
	Timestamp time.Time `json:"timestamp"`
}
