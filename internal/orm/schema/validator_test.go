package schema

import (
	"strings"
	"testing"
)

func TestSchemaValidator_ValidateStructural(t *testing.T) {
	tests := []struct {
		name    string
		fields  []*FieldBuilder
		wantErr string
	}{
		{
			name: "valid schema",
			fields: []*FieldBuilder{
				Column("id", TypeInt).Primary(),
				Column("title", TypeString).MinLength(2).MaxLength(50),
				Column("score", TypeInt).Min(0).Max(10),
				Column("slug", TypeString).Pattern(`^[a-z-]+$`),
				Synonym("name", "title").JSON("name"),
			},
		},
		{
			name: "synonym to unknown column",
			fields: []*FieldBuilder{
				Column("id", TypeInt).Primary(),
				Synonym("name", "missing"),
			},
			wantErr: `synonym target "missing" is not declared`,
		},
		{
			name: "length constraint on numeric field",
			fields: []*FieldBuilder{
				Column("id", TypeInt).Primary().MinLength(1),
			},
			wantErr: "min_length constraint requires a text field",
		},
		{
			name: "range constraint on text field",
			fields: []*FieldBuilder{
				Column("title", TypeString).Max(3),
			},
			wantErr: "max constraint requires a numeric field",
		},
		{
			name: "invalid pattern",
			fields: []*FieldBuilder{
				Column("slug", TypeString).Pattern(`([a-z`),
			},
			wantErr: "invalid pattern",
		},
		{
			name: "attachment on relationship",
			fields: []*FieldBuilder{
				Relationship("avatar", "File").Attachment(),
			},
			wantErr: "attachments must be declared as columns",
		},
		{
			name: "duplicate wire name",
			fields: []*FieldBuilder{
				Column("first_name", TypeString),
				Column("firstName", TypeString),
			},
			wantErr: `wire name "firstName" is already used by first_name`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewEntitySchema("Post")
			if err := s.Add(tt.fields...); err != nil {
				t.Fatalf("unexpected declaration error: %v", err)
			}

			err := NewSchemaValidator().ValidateStructural(s)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Entity:  "Post",
		Field:   "title",
		Message: "bad",
		Hint:    "fix it",
	}

	want := "Post.title: bad\n  hint: fix it"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
