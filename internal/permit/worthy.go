package permit

import "strings"

// Building-permit subtypes that are routine enough not to warrant a post.
// Matched as substrings of the subtype text because the registry pads the
// numeric codes inconsistently ("C- 329" vs "C-329").
var excludedBPSubtypes = []string{
	"C-1000",
	"C-1001",
	"C- 329",
	"C- 437",
	"R- 435",
	"R- 329",
	"R- 434",
}

// Non building-permit subtypes that are always worth posting.
var includedSubtypes = map[string]struct{}{
	"Zoning/Rezoning":  {},
	"Film":             {},
	"Street Vendor":    {},
	"Hotel":            {},
	"Easement Release": {},
}

const shortTermRentalMarker = "short term"

// Tweetworthy classifies a captured record for publication. A record
// qualifies when it is a building permit whose subtype is not on the
// exclusion list, or a short-term-rental permit, or a non building permit
// whose subtype is on the inclusion list. Records with no subtype never
// qualify.
func Tweetworthy(f Fields) bool {
	if f.Subtype == "" {
		return false
	}

	if strings.Contains(f.PermitID, "BP") {
		for _, prefix := range excludedBPSubtypes {
			if strings.Contains(f.Subtype, prefix) {
				return false
			}
		}
		return true
	}

	if strings.Contains(strings.ToLower(f.Subtype), shortTermRentalMarker) {
		return true
	}

	_, ok := includedSubtypes[f.Subtype]
	return ok
}
