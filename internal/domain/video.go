package domain

// VideoRecord is one normalized entry of an upstream video list.
type VideoRecord struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Poster       string `json:"poster"`
	Year         string `json:"year,omitempty"`
	Rating       string `json:"rating,omitempty"`
	Remarks      string `json:"remarks,omitempty"`
	CategoryID   int    `json:"category_id"`
	CategoryName string `json:"category_name"`
	SourceID     string `json:"source_id"`
}

// Category is an upstream type; ParentTypeID 0 marks a top-level category.
type Category struct {
	TypeID       int    `json:"type_id"`
	ParentTypeID int    `json:"type_pid"`
	Name         string `json:"type_name"`
}

// IsTopLevel reports whether the category has no parent.
func (c Category) IsTopLevel() bool {
	return c.ParentTypeID == 0
}

// CategoryGroups splits a category listing for the filter UI.
type CategoryGroups struct {
	Primary   []Category `json:"primary"`
	Secondary []Category `json:"secondary"`
}
