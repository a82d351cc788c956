package resources

import "strings"

// LegacyBusinessID is a business id in the compound form
// accounts/<account>/locations/<location>.
type LegacyBusinessID struct {
	AccountID  string
	LocationID string
}

// ShortID is the id the business is known by once migrated: the location id.
func (b LegacyBusinessID) ShortID() string {
	return b.LocationID
}

func (b LegacyBusinessID) String() string {
	return "accounts/" + b.AccountID + "/locations/" + b.LocationID
}

// ParseLegacyBusinessID reports whether id is in the legacy compound form and, if so,
// returns its account and location parts.
func ParseLegacyBusinessID(id string) (LegacyBusinessID, bool) {
	parts := strings.Split(id, "/")
	if len(parts) != 4 || parts[0] != "accounts" || parts[2] != "locations" {
		return LegacyBusinessID{}, false
	}
	if !isNumeric(parts[1]) || !isNumeric(parts[3]) {
		return LegacyBusinessID{}, false
	}
	return LegacyBusinessID{AccountID: parts[1], LocationID: parts[3]}, true
}

// IsLegacyBusinessID reports whether id is in the legacy compound form.
func IsLegacyBusinessID(id string) bool {
	_, ok := ParseLegacyBusinessID(id)
	return ok
}

// IsShortBusinessID reports whether id is already in the short, location id only form.
func IsShortBusinessID(id string) bool {
	return isNumeric(id)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
