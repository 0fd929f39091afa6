package models

import (
	"regexp"
	"strings"
)

// PreviewLimit caps the number of recipient rows rendered per request.
const PreviewLimit = 5

var (
	invalidFileChars = regexp.MustCompile(`[/\\?%*:|"<>\x00-\x1F\s]`)
	repeatedDashes   = regexp.MustCompile(`-+`)
)

type Recipient struct {
	Name   string `json:"name"`
	Award  string `json:"award"`
	Date   string `json:"date"`
	Issuer string `json:"issuer"`
}

// FileName returns a filesystem-safe slug of the recipient's name.
func (r Recipient) FileName() string {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return "recipient"
	}

	// Replace invalid characters and whitespace with a dash
	sanitized := invalidFileChars.ReplaceAllString(name, "-")

	// remove multiple consecutive dashes
	sanitized = strings.Trim(repeatedDashes.ReplaceAllString(sanitized, "-"), "-")
	if sanitized == "" {
		return "recipient"
	}
	return strings.ToLower(sanitized)
}

// CapRows returns at most PreviewLimit rows. The input slice is not modified.
func CapRows(rows []Recipient) []Recipient {
	if len(rows) <= PreviewLimit {
		return rows
	}
	return rows[:PreviewLimit:PreviewLimit]
}
