// Package schema provides the field descriptors and entity schemas that drive
// request binding, export and metadata generation. Every entity type declares
// an ordered list of fields up front; nothing is discovered at runtime.
package schema

import (
	"fmt"
)

// PrimitiveType represents the semantic value type of a field
type PrimitiveType int

const (
	// Text types
	TypeString PrimitiveType = iota
	TypeText

	// Numeric types
	TypeInt
	TypeBigInt
	TypeFloat
	TypeDecimal

	// Boolean
	TypeBool

	// Time types
	TypeTimestamp
	TypeDate
	TypeTime

	// Unique identifiers
	TypeUUID

	// Validated types
	TypeEmail
	TypeURL

	// Structured types
	TypeJSON
	TypeSet
	TypeEntity

	// Binary attachment
	TypeFile
)

// String returns the string representation of the primitive type
func (p PrimitiveType) String() string {
	switch p {
	case TypeString:
		return "string"
	case TypeText:
		return "text"
	case TypeInt:
		return "int"
	case TypeBigInt:
		return "bigint"
	case TypeFloat:
		return "float"
	case TypeDecimal:
		return "decimal"
	case TypeBool:
		return "bool"
	case TypeTimestamp:
		return "timestamp"
	case TypeDate:
		return "date"
	case TypeTime:
		return "time"
	case TypeUUID:
		return "uuid"
	case TypeEmail:
		return "email"
	case TypeURL:
		return "url"
	case TypeJSON:
		return "json"
	case TypeSet:
		return "set"
	case TypeEntity:
		return "entity"
	case TypeFile:
		return "file"
	default:
		return "unknown"
	}
}

// ParsePrimitiveType converts a string to a PrimitiveType
func ParsePrimitiveType(s string) (PrimitiveType, error) {
	switch s {
	case "string":
		return TypeString, nil
	case "text":
		return TypeText, nil
	case "int":
		return TypeInt, nil
	case "bigint":
		return TypeBigInt, nil
	case "float":
		return TypeFloat, nil
	case "decimal":
		return TypeDecimal, nil
	case "bool":
		return TypeBool, nil
	case "timestamp":
		return TypeTimestamp, nil
	case "date":
		return TypeDate, nil
	case "time":
		return TypeTime, nil
	case "uuid":
		return TypeUUID, nil
	case "email":
		return TypeEmail, nil
	case "url":
		return TypeURL, nil
	case "json":
		return TypeJSON, nil
	case "set":
		return TypeSet, nil
	case "entity":
		return TypeEntity, nil
	case "file":
		return TypeFile, nil
	default:
		return 0, fmt.Errorf("unknown primitive type: %s", s)
	}
}

// IsNumeric returns true if the type is a numeric type
func (p PrimitiveType) IsNumeric() bool {
	return p == TypeInt || p == TypeBigInt || p == TypeFloat || p == TypeDecimal
}

// IsText returns true if the type holds free text
func (p PrimitiveType) IsText() bool {
	return p == TypeString || p == TypeText || p == TypeEmail || p == TypeURL
}

// IsTemporal returns true for timestamp, date and time types
func (p PrimitiveType) IsTemporal() bool {
	return p == TypeTimestamp || p == TypeDate || p == TypeTime
}

// StorageKind tells how a field is backed by the entity's storage
type StorageKind int

const (
	// KindColumn is a plain persisted column
	KindColumn StorageKind = iota
	// KindSynonym aliases another column under a second name
	KindSynonym
	// KindRelationship points at one or many related entities
	KindRelationship
	// KindComputed is derived from other attributes and never persisted
	KindComputed
)

// String returns the string representation of the storage kind
func (k StorageKind) String() string {
	switch k {
	case KindColumn:
		return "column"
	case KindSynonym:
		return "synonym"
	case KindRelationship:
		return "relationship"
	case KindComputed:
		return "computed"
	default:
		return "unknown"
	}
}

// ConstraintType represents the type of constraint
type ConstraintType int

const (
	ConstraintMinLength ConstraintType = iota
	ConstraintMaxLength
	ConstraintMin
	ConstraintMax
	ConstraintPattern
	ConstraintUnique
	ConstraintIndex
	ConstraintPrimary
	ConstraintAuto
	ConstraintDefault
)

// String returns the string representation of the constraint type
func (c ConstraintType) String() string {
	switch c {
	case ConstraintMinLength:
		return "min_length"
	case ConstraintMaxLength:
		return "max_length"
	case ConstraintMin:
		return "min"
	case ConstraintMax:
		return "max"
	case ConstraintPattern:
		return "pattern"
	case ConstraintUnique:
		return "unique"
	case ConstraintIndex:
		return "index"
	case ConstraintPrimary:
		return "primary"
	case ConstraintAuto:
		return "auto"
	case ConstraintDefault:
		return "default"
	default:
		return "unknown"
	}
}

// Constraint represents a field constraint
type Constraint struct {
	Type         ConstraintType
	Value        interface{} // Constraint value (e.g., min length, pattern)
	ErrorMessage string      // Custom error message
}
