package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	VoterUIDPrefix = "V"
	UserIDPrefix   = "U"
)

type Voter struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Class string `json:"class"`
	Color string `json:"color"`
}

// FormatUID renders a voter uid for the given ordinal, e.g. 1 -> V001.
func FormatUID(n int) string {
	return fmt.Sprintf("%s%03d", VoterUIDPrefix, n)
}

// FormatUserID renders the fallback id used by the user import, e.g. 1 -> U001.
func FormatUserID(n int) string {
	return fmt.Sprintf("%s%03d", UserIDPrefix, n)
}

// UIDOrdinal extracts the numeric part of a voter uid.
func UIDOrdinal(uid string) (int, bool) {
	rest, ok := strings.CutPrefix(uid, VoterUIDPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func FindVoter(voters []Voter, uid string) (Voter, bool) {
	for _, v := range voters {
		if v.UID == uid {
			return v, true
		}
	}
	return Voter{}, false
}
