package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/conduit-lang/restbind/internal/orm/schema"
)

// Chain is the validator compiled from a field's declared constraints and
// type. It stops at the first failing validator.
type Chain struct {
	Validators []schema.Validator
	Message    string // Replaces the validator's own error text when set
}

// Validate implements schema.Validator
func (c *Chain) Validate(value interface{}) error {
	for _, v := range c.Validators {
		if err := v.Validate(value); err != nil {
			if c.Message != "" {
				return errors.New(c.Message)
			}
			return err
		}
	}
	return nil
}

// ForField compiles the constraints and built-in type checks of a field.
// Returns nil when the field declares nothing that needs runtime checking.
func ForField(f *schema.Field) (*Chain, error) {
	chain := &Chain{Message: f.Message}

	for _, c := range f.Constraints {
		switch c.Type {
		case schema.ConstraintMinLength:
			n, ok := c.Value.(int)
			if !ok {
				return nil, fmt.Errorf("field %s: min_length must be an int", f.Key)
			}
			chain.Validators = append(chain.Validators, &MinLengthValidator{MinLength: n})

		case schema.ConstraintMaxLength:
			n, ok := c.Value.(int)
			if !ok {
				return nil, fmt.Errorf("field %s: max_length must be an int", f.Key)
			}
			chain.Validators = append(chain.Validators, &MaxLengthValidator{MaxLength: n})

		case schema.ConstraintMin:
			chain.Validators = append(chain.Validators, &MinValidator{Min: c.Value, FieldType: f.Type})

		case schema.ConstraintMax:
			chain.Validators = append(chain.Validators, &MaxValidator{Max: c.Value, FieldType: f.Type})

		case schema.ConstraintPattern:
			pattern, err := compilePattern(c.Value)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Key, err)
			}
			chain.Validators = append(chain.Validators, &PatternValidator{Pattern: pattern})
		}
	}

	switch f.Type {
	case schema.TypeEmail:
		chain.Validators = append(chain.Validators, &EmailValidator{})
	case schema.TypeURL:
		chain.Validators = append(chain.Validators, &URLValidator{})
	}

	if len(chain.Validators) == 0 {
		return nil, nil
	}
	return chain, nil
}

// Compile attaches compiled chains to every column of the schema. Fields that
// already carry a Chain are skipped, so compiling twice is harmless.
func Compile(s *schema.EntitySchema) error {
	for _, f := range s.IterColumns(schema.IterOptions{}) {
		if f.Kind != schema.KindColumn || hasChain(f) {
			continue
		}
		chain, err := ForField(f)
		if err != nil {
			return err
		}
		if chain != nil {
			f.Validators = append([]schema.Validator{chain}, f.Validators...)
		}
	}
	return nil
}

func hasChain(f *schema.Field) bool {
	for _, v := range f.Validators {
		if _, ok := v.(*Chain); ok {
			return true
		}
	}
	return false
}

func compilePattern(value interface{}) (*regexp.Regexp, error) {
	switch p := value.(type) {
	case *regexp.Regexp:
		return p, nil
	case string:
		pattern, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		return pattern, nil
	default:
		return nil, fmt.Errorf("invalid pattern constraint")
	}
}
