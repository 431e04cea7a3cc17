package remote

import (
	"sort"

	"github.com/taskpad/taskpad/internal/model"
)

// stringField reads a string field, tolerating absent or mistyped values.
func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func boolField(fields map[string]any, key string) bool {
	if v, ok := fields[key].(bool); ok {
		return v
	}
	return false
}

// ProjectFromDocument decodes a stored project document.
func ProjectFromDocument(doc Document) model.Project {
	return model.Project{
		ID:        doc.ID,
		Name:      stringField(doc.Fields, "name"),
		Color:     stringField(doc.Fields, "color"),
		UserID:    stringField(doc.Fields, "userId"),
		Timestamp: doc.Timestamp,
	}
}

// ProjectFields builds the stored field set for a new project.
func ProjectFields(p model.ProjectCreate, userID string) map[string]any {
	return map[string]any{
		"name":   p.Name,
		"color":  p.Color,
		"userId": userID,
	}
}

// TaskFromDocument decodes a stored task document.
func TaskFromDocument(doc Document) model.Task {
	return model.Task{
		ID:        doc.ID,
		Text:      stringField(doc.Fields, "text"),
		Completed: boolField(doc.Fields, "completed"),
		ProjectID: stringField(doc.Fields, "projectId"),
		Timestamp: doc.Timestamp,
	}
}

// TaskFields builds the stored field set for a new task. New tasks always
// start not completed.
func TaskFields(t model.TaskCreate, projectID string) map[string]any {
	return map[string]any{
		"text":      t.Text,
		"completed": false,
		"projectId": projectID,
	}
}

// SortDocuments orders a document set in place per the given order. Ties are
// broken by id so snapshots are stable.
func SortDocuments(docs []Document, order Order) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			if order.Desc {
				return a.Timestamp.After(b.Timestamp)
			}
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.ID < b.ID
	})
}
