package service

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mediashelf/mediashelf/internal/media"
	"github.com/mediashelf/mediashelf/pkg/fields"
)

var nonBlank = []validation.Rule{validation.Required.Error(ReasonRequired)}

// ValidateFields reports the required-field failures of f.
func ValidateFields(f media.Fields) error {
	return fields.FromValidation(validation.Errors{
		"title": validation.Validate(strings.TrimSpace(f.Title), nonBlank...),
		"uri":   validation.Validate(strings.TrimSpace(f.URI), nonBlank...),
	})
}

// ValidatePatch only checks the members being changed; a present title or uri
// must still be non-empty.
func ValidatePatch(p media.Patch) error {
	errs := validation.Errors{}
	if p.Title != nil {
		errs["title"] = validation.Validate(strings.TrimSpace(*p.Title), nonBlank...)
	}
	if p.URI != nil {
		errs["uri"] = validation.Validate(strings.TrimSpace(*p.URI), nonBlank...)
	}
	return fields.FromValidation(errs)
}
