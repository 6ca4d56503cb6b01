package ipam

import "strings"

type Status int

const (
	StatusActive Status = iota
	StatusAvailable
)

func (s Status) String() string {
	if s == StatusAvailable {
		return "available"
	}
	return "active"
}

// StatusPredicate decides whether a network with this name and comment is unused space.
type StatusPredicate func(name, comment string) bool

// MarkerPredicate matches any of markers as a case-insensitive substring of
// name or comment. Empty markers are ignored.
func MarkerPredicate(markers []string) StatusPredicate {
	lowered := make([]string, 0, len(markers))
	for _, m := range markers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			lowered = append(lowered, m)
		}
	}
	return func(name, comment string) bool {
		n, c := strings.ToLower(name), strings.ToLower(comment)
		for _, m := range lowered {
			if strings.Contains(n, m) || strings.Contains(c, m) {
				return true
			}
		}
		return false
	}
}

func Classify(p StatusPredicate, name, comment string) Status {
	if p != nil && p(name, comment) {
		return StatusAvailable
	}
	return StatusActive
}
