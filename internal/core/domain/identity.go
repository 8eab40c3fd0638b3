package domain

import "strings"

// Identity is the authenticated principal of a tab: empty, the admin marker,
// or a voter uid.
type Identity string

const (
	NoIdentity    Identity = ""
	AdminIdentity Identity = "admin"
)

func (i Identity) IsAdmin() bool {
	return i == AdminIdentity
}

func (i Identity) IsVoter() bool {
	return strings.HasPrefix(string(i), VoterUIDPrefix)
}

func (i Identity) Empty() bool {
	return i == NoIdentity
}

type View string

const (
	ViewLanding View = "landing"
	ViewLogin   View = "login"
)

type Screen string

const (
	ScreenLanding Screen = "landing"
	ScreenLogin   Screen = "login"
	ScreenAdmin   Screen = "admin"
	ScreenVoter   Screen = "voter"
)

type LoginKind string

const (
	LoginAdmin LoginKind = "admin"
	LoginVoter LoginKind = "voter"
)

type Credentials struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	UID      string `json:"uid,omitempty"`
}

// CanonicalUID normalises a uid typed at the login form.
func CanonicalUID(uid string) string {
	return strings.ToUpper(strings.TrimSpace(uid))
}
