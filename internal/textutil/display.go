package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName title-cases a name the game records in capitals, such as the
// default team names "YOUR TEAM" and "OPPONENTS". Mixed-case input is
// returned unchanged so player-chosen names keep their spelling.
func DisplayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || name != strings.ToUpper(name) {
		return name
	}
	return cases.Title(language.Und).String(name)
}

// OrDash returns value, or "-" when value is blank.
func OrDash(value string) string {
	return Ternary(strings.TrimSpace(value) == "", "-", value)
}
