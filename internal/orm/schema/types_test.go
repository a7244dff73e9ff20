package schema

import "testing"

func TestPrimitiveType_RoundTrip(t *testing.T) {
	types := []PrimitiveType{
		TypeString, TypeText, TypeInt, TypeBigInt, TypeFloat, TypeDecimal,
		TypeBool, TypeTimestamp, TypeDate, TypeTime, TypeUUID, TypeEmail,
		TypeURL, TypeJSON, TypeSet, TypeEntity, TypeFile,
	}

	for _, pt := range types {
		t.Run(pt.String(), func(t *testing.T) {
			parsed, err := ParsePrimitiveType(pt.String())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if parsed != pt {
				t.Errorf("ParsePrimitiveType(%q) = %v, want %v", pt.String(), parsed, pt)
			}
		})
	}

	if _, err := ParsePrimitiveType("money"); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestPrimitiveType_Categories(t *testing.T) {
	tests := []struct {
		pt       PrimitiveType
		numeric  bool
		text     bool
		temporal bool
	}{
		{TypeInt, true, false, false},
		{TypeDecimal, true, false, false},
		{TypeString, false, true, false},
		{TypeEmail, false, true, false},
		{TypeDate, false, false, true},
		{TypeTimestamp, false, false, true},
		{TypeBool, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.pt.String(), func(t *testing.T) {
			if got := tt.pt.IsNumeric(); got != tt.numeric {
				t.Errorf("IsNumeric() = %v, want %v", got, tt.numeric)
			}
			if got := tt.pt.IsText(); got != tt.text {
				t.Errorf("IsText() = %v, want %v", got, tt.text)
			}
			if got := tt.pt.IsTemporal(); got != tt.temporal {
				t.Errorf("IsTemporal() = %v, want %v", got, tt.temporal)
			}
		})
	}
}

func TestStorageKind_String(t *testing.T) {
	tests := map[StorageKind]string{
		KindColumn:       "column",
		KindSynonym:      "synonym",
		KindRelationship: "relationship",
		KindComputed:     "computed",
		StorageKind(99):  "unknown",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", kind, got, want)
		}
	}
}
