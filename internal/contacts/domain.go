package contacts

import "time"

// Contact is an address-book entry managed by the admin application.
type Contact struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Company   string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpdatePatch carries the mutable fields of a contact. Nil means keep the
// current value.
type UpdatePatch struct {
	Name    *string
	Email   *string
	Phone   *string
	Company *string
	Notes   *string
}
