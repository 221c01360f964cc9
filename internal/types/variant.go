package types

import (
	"fmt"
	"strings"
)

// Variant identifies one of the fixed snapshot targets
type Variant string

const (
	// VariantDoc is a completely empty document
	VariantDoc Variant = "DOC"
	// VariantDocWithTable1 is an empty document plus the default table
	VariantDocWithTable1 Variant = "DOC_WITH_TABLE1"
)

// Variants returns every variant in output order
func Variants() []Variant {
	return []Variant{VariantDoc, VariantDocWithTable1}
}

// ParseVariant accepts a variant identifier in any letter case
func ParseVariant(s string) (Variant, error) {
	for _, v := range Variants() {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown variant %q", s)
}

// SeedsTable reports whether the default table is added after creation
func (v Variant) SeedsTable() bool {
	return v == VariantDocWithTable1
}

// CamelName converts the identifier to CamelCase, DOC_WITH_TABLE1 -> DocWithTable1
func (v Variant) CamelName() string {
	var b strings.Builder
	for _, part := range strings.Split(string(v), "_") {
		if part == "" {
			continue
		}
		b.WriteString(part[:1])
		b.WriteString(strings.ToLower(part[1:]))
	}
	return b.String()
}

func (v Variant) String() string {
	return string(v)
}
