package resource

import "time"

// Resource is an entry in the shared resource library.
type Resource struct {
	ID          string    `json:"id" db:"id" yaml:"id"`
	Title       string    `json:"title" db:"title" yaml:"title"`
	Description string    `json:"description" db:"description" yaml:"description"`
	Category    string    `json:"category" db:"category" yaml:"category"`
	URL         string    `json:"url" db:"url" yaml:"url"`
	Tags        []string  `json:"tags" db:"-" yaml:"tags"`
	CreatedAt   time.Time `json:"created_at" db:"created_at" yaml:"-"`
}
