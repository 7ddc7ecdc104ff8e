package constant

import "strings"

// MedicineKind is the form a medication is taken in.
type MedicineKind string

const (
	KindPill      MedicineKind = "pill"
	KindInjection MedicineKind = "injection"
	KindSyrup     MedicineKind = "syrup"
	KindOther     MedicineKind = "other"
)

// Valid reports whether k is one of the known kinds.
func (k MedicineKind) Valid() bool {
	switch k {
	case KindPill, KindInjection, KindSyrup, KindOther:
		return true
	}
	return false
}

// ParseKind normalises s into a MedicineKind. The second result is false for unknown values.
func ParseKind(s string) (MedicineKind, bool) {
	k := MedicineKind(strings.ToLower(strings.TrimSpace(s)))
	return k, k.Valid()
}

func (k MedicineKind) String() string {
	return string(k)
}
