package publish

import (
	"fmt"
	"strings"

	"github.com/permitwatch/permit-crawler/internal/permit"
)

// SubtypeDescription strips the leading permit-class code from a subtype,
// e.g. "R- 101 Single Family Houses" becomes "Single Family Houses".
// Subtypes without an R-/C- code pass through unchanged.
func SubtypeDescription(subtype string) string {
	if !strings.Contains(subtype, "R-") && !strings.Contains(subtype, "C-") {
		return subtype
	}
	collapsed := strings.ReplaceAll(subtype, "- ", "")
	parts := strings.Split(collapsed, " ")
	if len(parts) < 2 {
		return subtype
	}
	return strings.Join(parts[1:], " ")
}

// FormatPost renders the display string for one record: subtype
// description, project name, zip qualifier when known, and the registry
// permalink. Two sub-unit permits at one property format identically, which
// is what batch de-duplication keys on.
func FormatPost(rec permit.Record, permalinkBase string) string {
	var b strings.Builder
	b.WriteString(SubtypeDescription(rec.Fields.Subtype))
	b.WriteString(" at ")
	b.WriteString(rec.Fields.ProjectName)
	if rec.Fields.PropertyZip != "" {
		fmt.Fprintf(&b, " (%s)", rec.Fields.PropertyZip)
	}
	fmt.Fprintf(&b, " %s%d", permalinkBase, rec.RSN)
	return b.String()
}
