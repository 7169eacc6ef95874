package schedule

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hray3182/ClassSync/internal/errkind"
)

// Location is a validated "BUILDING ROOM" value.
type Location struct {
	Code     string
	Room     string
	Building string
}

func (l Location) String() string {
	if l.Code == "" {
		return ""
	}
	return l.Code + " " + l.Room
}

// ValidateLocation checks raw against the known building codes. The room
// must start with a digit. An empty location is allowed.
func ValidateLocation(raw string, buildings map[string]string) (Location, error) {
	fields := strings.Fields(strings.ToUpper(raw))
	if len(fields) == 0 {
		return Location{}, nil
	}
	if len(fields) < 2 {
		return Location{}, fmt.Errorf("%w: location %q should look like \"KIM 101\"", errkind.ErrInvalid, raw)
	}

	code := fields[0]
	building, ok := buildings[code]
	if !ok {
		return Location{}, fmt.Errorf("%w: unknown building code %q", errkind.ErrInvalid, code)
	}

	room := strings.Join(fields[1:], " ")
	if !unicode.IsDigit(rune(room[0])) {
		return Location{}, fmt.Errorf("%w: room %q should start with a number", errkind.ErrInvalid, room)
	}
	return Location{Code: code, Room: room, Building: building}, nil
}
