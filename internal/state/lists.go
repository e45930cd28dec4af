package state

import (
	"fmt"
	"strings"
)

// ListName names one of the user's anime lists. The name doubles as the
// list's persisted key.
type ListName string

const (
	Favorites ListName = "favorites"
	Watching  ListName = "watching"
	Completed ListName = "completed"
)

// Lists is every list in display order.
var Lists = []ListName{Favorites, Watching, Completed}

// SessionKey is the persisted key of the signed-in session.
const SessionKey = "session"

func (l ListName) Valid() bool {
	switch l {
	case Favorites, Watching, Completed:
		return true
	}
	return false
}

func ParseListName(s string) (ListName, error) {
	l := ListName(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("unknown list %q (want favorites, watching or completed)", s)
	}
	return l, nil
}
