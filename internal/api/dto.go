package api

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/fieldaudit/internal/autosave"
	"github.com/starford/fieldaudit/internal/models"
)

// SetFieldRequest is the request body for PUT /form/fields/{name}.
type SetFieldRequest struct {
	Value *string `json:"value" example:"Acme Plant"`
}

// Validate implements validation.Validatable.
func (r SetFieldRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Value, validation.NotNil, validation.Length(0, 1<<20)),
	)
}

// InkRequest is the JSON form of PUT /form/ink/{field}.
type InkRequest struct {
	DataURI string `json:"data_uri" example:"data:image/png;base64,iVBORw0..."`
}

// Validate implements validation.Validatable.
func (r InkRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DataURI, validation.Required, validation.By(func(v any) error {
			if s, _ := v.(string); !strings.HasPrefix(s, "data:image/") {
				return validation.NewError("validation_data_uri", "must be an image data URI")
			}
			return nil
		})),
	)
}

// ResetRequest is the request body for POST /form/reset.
type ResetRequest struct {
	Confirm bool `json:"confirm" example:"true"`
}

// Validate implements validation.Validatable. Declining is not a validation
// error; the service reports it.
func (r ResetRequest) Validate() error { return nil }

// FormResponse is the live form with its save status.
type FormResponse struct {
	Form   models.Snapshot `json:"form"`
	Status autosave.Status `json:"status"`
}

// RowResponse reports an added row.
type RowResponse struct {
	Table  string   `json:"table"`
	Index  int      `json:"index"`
	Fields []string `json:"fields"`
}

// PageResponse reports an added notes page.
type PageResponse struct {
	Section string `json:"section"`
	Index   int    `json:"index"`
	Field   string `json:"field"`
}
