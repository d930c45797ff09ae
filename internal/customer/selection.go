// Package customer keeps the customer half of a draft invoice.
package customer

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"invoice-desk/internal/models"
)

var (
	ErrCustomerNameRequired = errors.New("please enter customer name")
	ErrUnknownField         = errors.New("unknown customer field")
)

// Editable draft fields
const (
	FieldName    = "name"
	FieldPhone   = "phone"
	FieldAddress = "address"
)

// Selection holds either a customer picked from the saved list or details
// typed in for a walk-in. Hand edits after a pick keep the bound id; the
// remote service reconciles names.
type Selection struct {
	mu    sync.Mutex
	draft models.CustomerDraft
}

func NewSelection() *Selection {
	return &Selection{}
}

// SelectExisting copies the saved customer into the draft and binds its id
func (s *Selection) SelectExisting(c models.Customer) models.CustomerDraft {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = models.CustomerDraft{
		CustomerID: c.ID,
		Name:       c.Name,
		Phone:      c.Phone,
		Address:    c.Address,
	}
	return s.draft
}

// Edit sets one draft field
func (s *Selection) Edit(field, value string) (models.CustomerDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch strings.ToLower(field) {
	case FieldName:
		s.draft.Name = value
	case FieldPhone:
		s.draft.Phone = value
	case FieldAddress:
		s.draft.Address = value
	default:
		return s.draft, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return s.draft, nil
}

// Draft returns the current draft
func (s *Selection) Draft() models.CustomerDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Reset blanks the draft and drops any bound id
func (s *Selection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = models.CustomerDraft{}
}

// ValidateDraft checks a draft is ready for submission
func ValidateDraft(d models.CustomerDraft) error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrCustomerNameRequired
	}
	return nil
}

// FilterCustomers matches term case-insensitively against name or phone.
// An empty term returns list unchanged.
func FilterCustomers(list []models.Customer, term string) []models.Customer {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return list
	}

	out := make([]models.Customer, 0, len(list))
	for _, c := range list {
		if strings.Contains(strings.ToLower(c.Name), term) || strings.Contains(strings.ToLower(c.Phone), term) {
			out = append(out, c)
		}
	}
	return out
}
