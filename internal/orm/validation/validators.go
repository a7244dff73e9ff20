package validation

import (
	"fmt"
	"math"
	"math/big"
	"net/mail"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/conduit-lang/restbind/internal/orm/schema"
)

// MinValidator rejects numbers below Min. Only numeric columns are checked.
type MinValidator struct {
	Min       interface{}
	FieldType schema.PrimitiveType
}

// Validate implements schema.Validator
func (v *MinValidator) Validate(value interface{}) error {
	n, limit, skip, err := operands(v.FieldType, value, v.Min)
	if skip || err != nil {
		return err
	}
	if n.LessThan(limit) {
		return fmt.Errorf("must be at least %s", limit)
	}
	return nil
}

// MaxValidator rejects numbers above Max. Only numeric columns are checked.
type MaxValidator struct {
	Max       interface{}
	FieldType schema.PrimitiveType
}

// Validate implements schema.Validator
func (v *MaxValidator) Validate(value interface{}) error {
	n, limit, skip, err := operands(v.FieldType, value, v.Max)
	if skip || err != nil {
		return err
	}
	if n.GreaterThan(limit) {
		return fmt.Errorf("must be at most %s", limit)
	}
	return nil
}

// operands converts a value and its limit to decimals. Integer columns only
// take whole numbers. skip is set for nil values and non numeric columns.
func operands(t schema.PrimitiveType, value, limit interface{}) (n, bound decimal.Decimal, skip bool, err error) {
	integer := t == schema.TypeInt || t == schema.TypeBigInt
	if value == nil || !(integer || t == schema.TypeFloat || t == schema.TypeDecimal) {
		return n, bound, true, nil
	}

	n, ok := toDecimal(value)
	switch {
	case !ok && integer, ok && integer && !n.IsInteger():
		return n, bound, false, fmt.Errorf("expected integer value")
	case !ok:
		return n, bound, false, fmt.Errorf("expected numeric value")
	}

	bound, ok = toDecimal(limit)
	if !ok {
		return n, bound, false, fmt.Errorf("invalid limit %v", limit)
	}
	return n, bound, false, nil
}

// toDecimal accepts Go numbers, decimals, JSON numbers and numeric strings
// from forms
func toDecimal(value interface{}) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, false
		}
		return *v, true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		return d, err == nil
	case float32:
		return fromFloat(float64(v))
	case float64:
		return fromFloat(v)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(rv.Uint()), 0), true
	}
	return decimal.Zero, false
}

func fromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

// PatternValidator validates string values against a regex pattern
type PatternValidator struct {
	Pattern *regexp.Regexp
}

// Validate implements schema.Validator
func (v *PatternValidator) Validate(value interface{}) error {
	s, skip, err := text(value, "pattern")
	if skip || err != nil {
		return err
	}
	if !v.Pattern.MatchString(s) {
		return fmt.Errorf("does not match required pattern")
	}
	return nil
}

// EmailValidator accepts a bare RFC 5322 address
type EmailValidator struct{}

// Validate implements schema.Validator
func (v *EmailValidator) Validate(value interface{}) error {
	s, skip, err := text(value, "email")
	if skip || err != nil {
		return err
	}
	if addr, err := mail.ParseAddress(s); err != nil || addr.Address != strings.TrimSpace(s) {
		return fmt.Errorf("must be a valid email address")
	}
	return nil
}

// URLValidator accepts absolute URLs with a host
type URLValidator struct{}

// Validate implements schema.Validator
func (v *URLValidator) Validate(value interface{}) error {
	s, skip, err := text(value, "URL")
	if skip || err != nil {
		return err
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("must be an absolute URL")
	}
	return nil
}

// text unwraps a string for the named check. Blank strings are rejected.
func text(value interface{}, check string) (string, bool, error) {
	if value == nil {
		return "", true, nil
	}
	s, ok := value.(string)
	if !ok {
		return "", false, fmt.Errorf("%s validation requires string value", check)
	}
	if check != "pattern" && strings.TrimSpace(s) == "" {
		return "", false, fmt.Errorf("cannot be empty")
	}
	return s, false, nil
}

// MinLengthValidator validates the minimum length of strings (in runes) and slices
type MinLengthValidator struct {
	MinLength int
}

// Validate implements schema.Validator
func (v *MinLengthValidator) Validate(value interface{}) error {
	n, unit, skip, err := length(value, "min_length")
	if skip || err != nil {
		return err
	}
	if n < v.MinLength {
		return fmt.Errorf("must be at least %d %s", v.MinLength, unit)
	}
	return nil
}

// MaxLengthValidator validates the maximum length of strings (in runes) and slices
type MaxLengthValidator struct {
	MaxLength int
}

// Validate implements schema.Validator
func (v *MaxLengthValidator) Validate(value interface{}) error {
	n, unit, skip, err := length(value, "max_length")
	if skip || err != nil {
		return err
	}
	if n > v.MaxLength {
		return fmt.Errorf("must be at most %d %s", v.MaxLength, unit)
	}
	return nil
}

func length(value interface{}, check string) (int, string, bool, error) {
	if value == nil {
		return 0, "", true, nil
	}
	if s, ok := value.(string); ok {
		return utf8.RuneCountInString(s), "characters", false, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return 0, "", false, fmt.Errorf("%s validation requires string, array or slice value", check)
	}
	return rv.Len(), "items", false, nil
}
