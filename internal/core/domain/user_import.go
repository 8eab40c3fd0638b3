package domain

import "strings"

// GeneratedUser is a row produced by joining an uploaded sheet against the
// roster. It only lives in the admin tab that imported it.
type GeneratedUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Password string `json:"password"`
}

// GeneratePassword builds the deterministic password handed out to imported
// users: first name token, "@123", first letter of the colour.
func GeneratePassword(name, color string) string {
	first, _, _ := strings.Cut(name, " ")
	initial := ""
	if color != "" {
		initial = string([]rune(color)[0])
	}
	return first + "@123" + initial
}

func (u GeneratedUser) Matches(filter string) bool {
	f := strings.ToLower(filter)
	return strings.Contains(strings.ToLower(u.ID), f) ||
		strings.Contains(strings.ToLower(u.Name), f) ||
		strings.Contains(strings.ToLower(u.Color), f)
}
