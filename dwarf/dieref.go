package dwarf

import "fmt"

// DieReferenceKind tags which of DieReference's two offset spaces is in
// use. See DW_OP_call2/DW_OP_call4 (unit-relative) vs DW_OP_call_ref
// (section-relative), mirroring the same two cases cursor.go's value()
// already distinguishes for DW_FORM_ref_udata vs DW_FORM_ref_addr.
type DieReferenceKind int

const (
	UnitRef DieReferenceKind = iota
	DebugInfoRef
)

// DieReference identifies a target DIE for a DW_OP_call* operation. Unlike
// cursor.go's *DebugInfoEntryReference (which eagerly resolves to an
// absolute SectionOffset because it always has the enclosing CompileUnit in
// hand), the expression decoder only has a raw operand and must defer
// resolution to whoever answers RequiresAtLocation.
type DieReference struct {
	Kind   DieReferenceKind
	Offset SectionOffset
}

func (ref DieReference) String() string {
	switch ref.Kind {
	case UnitRef:
		return fmt.Sprintf("unit+%#x", uint64(ref.Offset))
	case DebugInfoRef:
		return fmt.Sprintf("debug_info+%#x", uint64(ref.Offset))
	default:
		return fmt.Sprintf("DieReference(kind=%d, offset=%#x)", ref.Kind, uint64(ref.Offset))
	}
}
