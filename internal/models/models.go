// Package models holds the bookshelf entities shared by stores and resolvers.
package models

// Author is a writer of books.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// Book references its author by id only; the author may not exist.
type Book struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Genre    string `json:"genre"`
	AuthorID string `json:"authorId"`
}

// BookPatch carries the fields of an update. Nil fields are left unchanged.
type BookPatch struct {
	Name     *string
	Genre    *string
	AuthorID *string
}

// IsEmpty reports whether the patch changes nothing.
func (p BookPatch) IsEmpty() bool {
	return p.Name == nil && p.Genre == nil && p.AuthorID == nil
}

// Apply returns b with the supplied fields replaced.
func (p BookPatch) Apply(b Book) Book {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Genre != nil {
		b.Genre = *p.Genre
	}
	if p.AuthorID != nil {
		b.AuthorID = *p.AuthorID
	}
	return b
}

// BookFilter narrows a book listing. A nil field matches everything.
type BookFilter struct {
	AuthorID *string
}

// Matches reports whether b passes the filter.
func (f BookFilter) Matches(b Book) bool {
	return f.AuthorID == nil || b.AuthorID == *f.AuthorID
}
