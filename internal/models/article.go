package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Default values applied to every freshly ingested article. Popularity and
// read time are adjusted later by external collaborators, never by the
// pipeline itself.
const (
	DefaultReadTime   = 2
	DefaultPopularity = 0
)

// Article represents a row in the 'articles' table: one annotated article,
// keyed by its canonical link.
type Article struct {
	ID             int64      `db:"id" json:"id"`
	Title          string     `db:"title" json:"title"`
	Description    string     `db:"description" json:"description"`
	Summary        string     `db:"summary" json:"summary"`
	SentimentLabel string     `db:"sentiment_label" json:"sentiment_label"`
	SentimentScore float64    `db:"sentiment_score" json:"sentiment_score"`
	CategoryID     string     `db:"category_id" json:"category_id"`
	CategoryTitle  string     `db:"category_title" json:"category_title"`
	PublishedAt    time.Time  `db:"published_at" json:"published_at"`
	Source         string     `db:"source" json:"source"`
	Link           string     `db:"link" json:"link"`
	ImageURL       string     `db:"image_url" json:"image_url"`
	Persons        EntityList `db:"persons" json:"persons"`
	Organizations  EntityList `db:"organizations" json:"organizations"`
	Locations      EntityList `db:"locations" json:"locations"`
	ReadTime       int        `db:"read_time" json:"read_time"`
	Popularity     int        `db:"popularity" json:"popularity"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// NewArticle creates an Article with the fixed defaults applied.
func NewArticle() *Article {
	now := time.Now()
	return &Article{
		Persons:       EntityList{},
		Organizations: EntityList{},
		Locations:     EntityList{},
		ReadTime:      DefaultReadTime,
		Popularity:    DefaultPopularity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// EntityList is an ordered list of entity mentions. It is stored as a JSON
// array in a TEXT column and is never null: an article without entities
// serializes as '[]'.
type EntityList []string

var (
	_ driver.Valuer = EntityList(nil)
	_ sql.Scanner   = (*EntityList)(nil)
)

// Value implements driver.Valuer for database writes.
func (e EntityList) Value() (driver.Value, error) {
	if e == nil {
		e = EntityList{}
	}
	b, err := json.Marshal([]string(e))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database reads.
func (e *EntityList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*e = EntityList{}
		return nil
	case []byte:
		return e.unmarshal(v)
	case string:
		return e.unmarshal([]byte(v))
	default:
		return fmt.Errorf("unsupported entity list source type %T", src)
	}
}

func (e *EntityList) unmarshal(b []byte) error {
	if len(b) == 0 {
		*e = EntityList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	if out == nil {
		out = []string{}
	}
	*e = EntityList(out)
	return nil
}

// MarshalJSON keeps the API representation non-null as well.
func (e EntityList) MarshalJSON() ([]byte, error) {
	if e == nil {
		e = EntityList{}
	}
	return json.Marshal([]string(e))
}
