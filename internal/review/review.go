// Package review implements the invoice-review reconciliation state machine.
//
// Every operation is a pure transition from one State value to the next, so
// the rules (derived totals, stale-subcategory clearing, mismatch detection)
// can be exercised from tests without an HTTP harness. Nothing here talks to
// the backend; confirming a snapshot is the service layer's job.
package review

import (
	"strconv"
	"strings"
	"time"

	"github.com/notainsight/nota-insight-bff-go/internal/cnpj"
	"github.com/notainsight/nota-insight-bff-go/internal/domain"
)

// Line item field names accepted by EditLineItem.
const (
	FieldDescription  = "description"
	FieldQuantity     = "quantity"
	FieldUnit         = "unit"
	FieldUnitPrice    = "unit_price"
	FieldTotalPrice   = "total_price"
	FieldCategoryName = "category_name"
	FieldSubcategory  = "subcategory"
)

// Header field names accepted by EditHeaderField.
const (
	HeaderIssuerName = "issuer_name"
	HeaderIssuerCNPJ = "issuer_cnpj"
	HeaderNumber     = "number"
	HeaderSeries     = "series"
	HeaderAccessKey  = "access_key"
	HeaderIssueDate  = "issue_date"
	HeaderTotalValue = "total_value"
)

// MismatchEpsilon is the currency tolerance between the item sum and the
// declared invoice total. Differences at or below it are not a mismatch.
const MismatchEpsilon = 0.01

// State is the editable review snapshot plus field-level errors.
// Transitions never mutate the receiver; they return a new State.
type State struct {
	Data        domain.ExtractedInvoiceData
	FieldErrors map[string]string
}

// NewState wraps freshly extracted data. A snapshot always carries at least
// one line item so the minimum-one-item rule holds from the start, and the
// header fields go through the same checks as user edits: an invalid CNPJ or
// a future issue date in the extraction output blocks confirmation even when
// the user never touches those fields.
func NewState(data domain.ExtractedInvoiceData) State {
	if len(data.Items) == 0 {
		data.Items = []domain.LineItem{emptyItem()}
	}
	s := State{Data: data, FieldErrors: map[string]string{}}
	s.setIssuerCNPJ(data.IssuerCNPJ)
	s.setIssueDate(data.IssueDate)
	return s
}

func emptyItem() domain.LineItem {
	return domain.LineItem{Quantity: 1, Unit: "UN"}
}

// clone deep-copies the mutable parts of the state.
func (s State) clone() State {
	out := s
	out.Data.Items = make([]domain.LineItem, len(s.Data.Items))
	copy(out.Data.Items, s.Data.Items)
	out.Data.PotentialDuplicates = append([]domain.PotentialDuplicate(nil), s.Data.PotentialDuplicates...)
	out.FieldErrors = make(map[string]string, len(s.FieldErrors))
	for k, v := range s.FieldErrors {
		out.FieldErrors[k] = v
	}
	return out
}

// parseNumber converts user input to a number, degrading to 0 on any
// parse failure. Comma decimals are accepted.
func parseNumber(value string) float64 {
	v := strings.TrimSpace(strings.ReplaceAll(value, ",", "."))
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

// EditLineItem applies a single field edit to the item at index.
//
// Numeric edits (quantity, unit_price) recompute the item's total_price but
// never the invoice total_value: only structural changes (add/remove) or the
// explicit UseItemsSumAsTotal action touch the header total. A category edit
// always clears the subcategory; category and subcategory values are checked
// against the closed taxonomy and an unknown value is a no-op, like an
// out-of-range index.
func (s State) EditLineItem(index int, field, value string) State {
	if index < 0 || index >= len(s.Data.Items) {
		return s
	}
	out := s.clone()
	item := &out.Data.Items[index]

	switch field {
	case FieldQuantity:
		item.Quantity = parseNumber(value)
		item.TotalPrice = item.Quantity * item.UnitPrice
	case FieldUnitPrice:
		item.UnitPrice = parseNumber(value)
		item.TotalPrice = item.Quantity * item.UnitPrice
	case FieldDescription:
		item.Description = value
		if item.NormalizedName != "" {
			item.NormalizedName = value
		}
	case FieldCategoryName:
		if value != "" && !domain.ValidCategory(value) {
			return s
		}
		item.CategoryName = value
		item.Subcategory = ""
	case FieldSubcategory:
		if !domain.ValidSubcategory(item.CategoryName, value) {
			return s
		}
		item.Subcategory = value
	case FieldUnit:
		item.Unit = value
	case FieldTotalPrice:
		item.TotalPrice = parseNumber(value)
	}
	return out
}

// AddLineItem appends a zero-valued item and recomputes the invoice total
// from the item sum (structural change).
func (s State) AddLineItem() State {
	out := s.clone()
	out.Data.Items = append(out.Data.Items, emptyItem())
	out.Data.TotalValue = out.Data.ItemsSum()
	return out
}

// RemoveLineItem removes the item at index and recomputes the invoice total.
// It is a no-op when only one item remains, whatever the index, and for an
// out-of-range index.
func (s State) RemoveLineItem(index int) State {
	if len(s.Data.Items) <= 1 {
		return s
	}
	if index < 0 || index >= len(s.Data.Items) {
		return s
	}
	out := s.clone()
	out.Data.Items = append(out.Data.Items[:index], out.Data.Items[index+1:]...)
	out.Data.TotalValue = out.Data.ItemsSum()
	return out
}

// UseItemsSumAsTotal is the explicit, user-triggered reconciliation of the
// mismatch state. It is never applied automatically.
func (s State) UseItemsSumAsTotal() State {
	out := s.clone()
	out.Data.TotalValue = out.Data.ItemsSum()
	return out
}

// EditHeaderField applies a header edit.
//
// issuer_cnpj is re-punctuated to canonical form as typed and validated;
// an invalid result sets a field error without blocking further typing.
// issue_date keeps the typed value but flags future dates. total_value is
// independently editable, which is what produces the mismatch state.
func (s State) EditHeaderField(field, value string) State {
	out := s.clone()
	switch field {
	case HeaderIssuerCNPJ:
		out.setIssuerCNPJ(value)
	case HeaderIssueDate:
		out.setIssueDate(value)
	case HeaderTotalValue:
		out.Data.TotalValue = parseNumber(value)
	case HeaderIssuerName:
		out.Data.IssuerName = value
	case HeaderNumber:
		out.Data.Number = value
	case HeaderSeries:
		out.Data.Series = value
	case HeaderAccessKey:
		out.Data.AccessKey = value
	}
	return out
}

// setIssuerCNPJ re-punctuates the CNPJ to canonical form and maintains its
// field error. An invalid value is kept so typing is never blocked.
func (s *State) setIssuerCNPJ(value string) {
	formatted := cnpj.Format(value)
	s.Data.IssuerCNPJ = formatted
	switch {
	case formatted == "":
		delete(s.FieldErrors, HeaderIssuerCNPJ)
	case !cnpj.Valid(formatted):
		s.FieldErrors[HeaderIssuerCNPJ] = "CNPJ inválido"
	default:
		delete(s.FieldErrors, HeaderIssuerCNPJ)
	}
}

// setIssueDate keeps the typed value and flags unparsable or future dates.
func (s *State) setIssueDate(value string) {
	s.Data.IssueDate = value
	switch t, err := parseIssueDate(value); {
	case value == "":
		delete(s.FieldErrors, HeaderIssueDate)
	case err != nil:
		s.FieldErrors[HeaderIssueDate] = "data inválida"
	case t.After(time.Now()):
		s.FieldErrors[HeaderIssueDate] = "data de emissão não pode ser futura"
	default:
		delete(s.FieldErrors, HeaderIssueDate)
	}
}

// SetIssuerName overwrites the issuer with an enrichment lookup result.
func (s State) SetIssuerName(name string) State {
	out := s.clone()
	out.Data.IssuerName = name
	return out
}

func parseIssueDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// Mismatch reports whether the item sum diverges from the declared total by
// more than the currency epsilon. It is derived on every call, never stored.
func (s State) Mismatch() bool {
	diff := s.Data.ItemsSum() - s.Data.TotalValue
	if diff < 0 {
		diff = -diff
	}
	return diff > MismatchEpsilon
}

// BlockingErrors returns the header fields whose errors block confirmation
// (CNPJ validity and issue date, per the confirm pre-validation rule).
func (s State) BlockingErrors() []string {
	var fields []string
	for _, f := range []string{HeaderIssuerCNPJ, HeaderIssueDate} {
		if _, ok := s.FieldErrors[f]; ok {
			fields = append(fields, f)
		}
	}
	return fields
}

// CNPJValid reports whether the current issuer CNPJ is present and valid,
// the precondition for the enrichment lookup.
func (s State) CNPJValid() bool {
	return cnpj.Valid(s.Data.IssuerCNPJ)
}
