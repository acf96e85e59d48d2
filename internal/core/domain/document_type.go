package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DocumentType is a recognised classification label. Its string value is the
// identifier offered to scorers and written on the wire.
type DocumentType string

const (
	DocumentTypeUnknown        DocumentType = "other"
	DocumentTypeDriversLicense DocumentType = "drivers_license"
	DocumentTypeBankStatement  DocumentType = "bank_statement"
	DocumentTypeInvoice        DocumentType = "invoice"
)

// unknownAlias is accepted from scorers that spell the fallback label literally.
const unknownAlias = "unknown"

var registry = [...]DocumentType{
	DocumentTypeUnknown,
	DocumentTypeDriversLicense,
	DocumentTypeBankStatement,
	DocumentTypeInvoice,
}

func AllDocumentTypes() []DocumentType {
	out := make([]DocumentType, len(registry))
	copy(out, registry[:])
	return out
}

// CandidateLabels returns the identifiers of every registered type, UNKNOWN included.
func CandidateLabels() []string {
	labels := make([]string, 0, len(registry))
	for _, t := range registry {
		labels = append(labels, string(t))
	}
	return labels
}

func ParseDocumentType(raw string) (DocumentType, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == unknownAlias {
		return DocumentTypeUnknown, true
	}
	for _, t := range registry {
		if string(t) == value {
			return t, true
		}
	}
	return DocumentTypeUnknown, false
}

func (t DocumentType) String() string {
	return string(t)
}

func (t *DocumentType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("document type must be a string: %w", err)
	}
	parsed, ok := ParseDocumentType(raw)
	if !ok {
		return WrapError(ErrInvalidInput, "parse document type", fmt.Errorf("unknown label %q", raw))
	}
	*t = parsed
	return nil
}
