package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// document is the wire form of a stored record
type document struct {
	ID        string         `json:"id"`
	Fields    map[string]any `json:"fields"`
	Timestamp time.Time      `json:"timestamp"`
}

type docRequest struct {
	Fields map[string]any `json:"fields"`
}

// handleCreateDoc creates a document, assigning id and timestamp
func (s *Server) handleCreateDoc(c echo.Context) error {
	userID := c.Get("user_id").(string)
	collection := c.Param("collection")

	var req docRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Fields == nil {
		req.Fields = map[string]any{}
	}

	fields, err := json.Marshal(req.Fields)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid fields"})
	}

	doc := document{ID: uuid.NewString(), Fields: req.Fields}
	err = s.db.QueryRow(`
		INSERT INTO documents (id, owner_id, collection, fields)
		VALUES ($1, $2, $3, $4::jsonb)
		RETURNING timestamp`,
		doc.ID, userID, collection, string(fields),
	).Scan(&doc.Timestamp)

	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, doc)
}

// handleGetDoc returns a single document or 404
func (s *Server) handleGetDoc(c echo.Context) error {
	userID := c.Get("user_id").(string)
	collection := c.Param("collection")
	id := c.Param("id")

	var (
		doc    document
		fields string
	)
	err := s.db.QueryRow(`
		SELECT id, fields, timestamp FROM documents
		WHERE owner_id = $1 AND collection = $2 AND id = $3`,
		userID, collection, id,
	).Scan(&doc.ID, &fields, &doc.Timestamp)

	if err == sql.ErrNoRows {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	if err := json.Unmarshal([]byte(fields), &doc.Fields); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, doc)
}

// handleQueryDocs returns the full ordered set matching all equality filters
func (s *Server) handleQueryDocs(c echo.Context) error {
	userID := c.Get("user_id").(string)
	collection := c.Param("collection")

	query := `SELECT id, fields, timestamp FROM documents WHERE owner_id = $1 AND collection = $2`
	args := []any{userID, collection}

	for _, raw := range c.QueryParams()["filter"] {
		field, value, ok := strings.Cut(raw, ":")
		if !ok || field == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid filter"})
		}
		args = append(args, field, value)
		query += fmt.Sprintf(" AND fields->>$%d = $%d", len(args)-1, len(args))
	}

	dir := "ASC"
	if c.QueryParam("dir") == "desc" {
		dir = "DESC"
	}
	query += " ORDER BY timestamp " + dir + ", id ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	defer rows.Close()

	docs := []document{}
	for rows.Next() {
		var (
			doc    document
			fields string
		)
		if err := rows.Scan(&doc.ID, &fields, &doc.Timestamp); err != nil {
			c.Logger().Error("db error:", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		if err := json.Unmarshal([]byte(fields), &doc.Fields); err != nil {
			c.Logger().Error("bad document fields:", err)
			continue
		}
		docs = append(docs, doc)
	}

	return c.JSON(http.StatusOK, map[string]any{"documents": docs})
}

// handleUpdateDoc merges the named fields into an existing document.
// Updates are blind overwrites of the named fields; there is no version
// token to check against.
func (s *Server) handleUpdateDoc(c echo.Context) error {
	userID := c.Get("user_id").(string)
	collection := c.Param("collection")
	id := c.Param("id")

	var req docRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if len(req.Fields) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "no fields to update"})
	}

	fields, err := json.Marshal(req.Fields)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid fields"})
	}

	res, err := s.db.Exec(`
		UPDATE documents SET fields = fields || $4::jsonb
		WHERE owner_id = $1 AND collection = $2 AND id = $3`,
		userID, collection, id, string(fields),
	)
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleDeleteDoc removes a document; deleting an absent one is not an error
func (s *Server) handleDeleteDoc(c echo.Context) error {
	userID := c.Get("user_id").(string)
	collection := c.Param("collection")
	id := c.Param("id")

	_, err := s.db.Exec(`
		DELETE FROM documents
		WHERE owner_id = $1 AND collection = $2 AND id = $3`,
		userID, collection, id,
	)
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
