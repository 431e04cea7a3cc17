package model

import "time"

// Project represents a collection of tasks
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// DefaultColors is the palette offered when creating a project.
var DefaultColors = []string{
	"#FF6B6B", // red
	"#FFB347", // orange
	"#FFE66D", // yellow
	"#95E1A3", // green
	"#4ECDC4", // teal
	"#6C757D", // gray
}
