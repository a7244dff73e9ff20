package validation

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/conduit-lang/restbind/internal/orm/schema"
)

func TestValidationErrors_Add(t *testing.T) {
	errs := NewValidationErrors()

	errs.Add("title", "must be at least 5 characters")
	errs.Add("email", "must be a valid email address")
	errs.Add("title", "must not contain special characters")

	if len(errs.Fields) != 2 {
		t.Errorf("expected 2 fields with errors, got %d", len(errs.Fields))
	}
	if len(errs.Fields["title"]) != 2 {
		t.Errorf("expected 2 errors for title, got %d", len(errs.Fields["title"]))
	}
	if errs.Count() != 3 {
		t.Errorf("expected count 3, got %d", errs.Count())
	}
}

func TestValidationErrors_Error(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*ValidationErrors)
		contains []string
	}{
		{
			name:     "no errors",
			setup:    func(*ValidationErrors) {},
			contains: []string{"validation failed"},
		},
		{
			name: "single error",
			setup: func(ve *ValidationErrors) {
				ve.Add("title", "is required")
			},
			contains: []string{"validation failed: title: is required"},
		},
		{
			name: "multiple errors sorted by field",
			setup: func(ve *ValidationErrors) {
				ve.Add("title", "too short")
				ve.Add("email", "invalid")
			},
			contains: []string{"  - email: invalid\n  - title: too short"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ve := NewValidationErrors()
			tt.setup(ve)
			msg := ve.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Error() = %q, want it to contain %q", msg, want)
				}
			}
		})
	}
}

func TestValidationErrors_MarshalJSON(t *testing.T) {
	ve := NewValidationErrors()
	ve.Add("title", "too short")

	data, err := json.Marshal(ve)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded["error"] != "validation_failed" {
		t.Errorf("expected error=validation_failed, got %v", decoded["error"])
	}
	fields, ok := decoded["fields"].(map[string]interface{})
	if !ok || fields["title"] == nil {
		t.Errorf("expected title in fields, got %v", decoded["fields"])
	}
}

func TestFromError(t *testing.T) {
	s := schema.NewEntitySchema("Member").MustAdd(
		schema.Column("first_name", schema.TypeString),
	)

	t.Run("field validation error uses wire name", func(t *testing.T) {
		err := fmt.Errorf("import: %w", &schema.FieldValidationError{
			Field: "first_name",
			Err:   errors.New("must be at least 2 characters"),
		})

		ve := FromError(s, err)
		if ve == nil {
			t.Fatal("expected ValidationErrors")
		}
		if got := ve.Fields["firstName"]; len(got) != 1 || got[0] != "must be at least 2 characters" {
			t.Errorf("unexpected fields: %v", ve.Fields)
		}
	})

	t.Run("existing validation errors pass through", func(t *testing.T) {
		original := NewValidationErrors()
		original.Add("x", "y")
		if FromError(s, original) != original {
			t.Error("expected same instance")
		}
	})

	t.Run("unrelated error", func(t *testing.T) {
		if FromError(s, errors.New("boom")) != nil {
			t.Error("expected nil for unrelated error")
		}
	})
}
