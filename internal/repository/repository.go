package repository

// PageQuery holds limit/offset pagination parameters plus an optional folder
// filter for document listings.
type PageQuery struct {
	Limit      int
	Offset     int
	FolderPath string
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
