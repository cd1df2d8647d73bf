package ref

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex validates a single address segment, e.g. `httpclient` or `tier-1_client`.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// Parse creates an Address by parsing its canonical string representation.
// Accepted forms are `kind` and `kind.name`.
func Parse(raw string) (Address, error) {
	if raw == "" {
		return Address{}, fmt.Errorf("component reference cannot be empty")
	}

	segments := strings.Split(raw, ".")
	if len(segments) > 2 {
		return Address{}, fmt.Errorf("component reference %q has too many segments", raw)
	}

	for _, segment := range segments {
		if segment == "" {
			return Address{}, fmt.Errorf("component reference %q contains an empty segment", raw)
		}
		if !segmentRegex.MatchString(segment) {
			return Address{}, fmt.Errorf("invalid reference segment: %q", segment)
		}
	}

	addr := Address{Kind: segments[0]}
	if len(segments) == 2 {
		addr.Name = segments[1]
	}
	return addr, nil
}
