package model

// DefaultTagColor is applied when a tag is created without an explicit color.
const DefaultTagColor = "#808080"

// Tag categorizes documents. Names are unique; the relation to documents is
// many-to-many.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}
