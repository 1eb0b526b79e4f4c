package tempokey

import (
	"strings"
)

// DeriveKey scans a name for the first token that looks like a musical key:
// a note letter A–G, optional sharp/flat, optional Major/Minor qualifier, all
// bounded by separators. The result is canonical ("Bb Min", "F#", "C Maj");
// ok=false means no key token was found.
func DeriveKey(name string) (string, bool) {
	runes := []rune(name)
	for i := 0; i < len(runes); i++ {
		if !boundaryBefore(runes, i) {
			continue
		}
		letter := runes[i]
		if !isNoteLetter(letter) {
			continue
		}
		if key, ok := parseKeyAt(runes, i); ok {
			return key, true
		}
	}
	return "", false
}

func parseKeyAt(runes []rune, start int) (string, bool) {
	letter := strings.ToUpper(string(runes[start]))
	pos := start + 1

	accidental := ""
	if pos < len(runes) && (runes[pos] == '#' || runes[pos] == 'b') {
		accidental = string(runes[pos])
		pos++
	}

	// Qualifier may follow directly or after separator runs.
	qualStart := pos
	for qualStart < len(runes) && isSeparator(runes[qualStart]) {
		qualStart++
	}
	if quality, end, ok := parseQuality(runes, qualStart); ok && boundaryAfter(runes, end) {
		return letter + accidental + " " + quality, true
	}

	// No qualifier: the letter (plus accidental) must end at a boundary.
	if boundaryAfter(runes, pos) {
		return letter + accidental, true
	}

	// A consumed flat might actually be the start of a word; retry without it.
	if accidental == "b" && boundaryAfter(runes, start+1) {
		return letter, true
	}
	return "", false
}

var qualities = []struct {
	token string
	label string
}{
	{"major", "Maj"},
	{"minor", "Min"},
	{"maj", "Maj"},
	{"min", "Min"},
	{"m", "Min"},
}

func parseQuality(runes []rune, pos int) (label string, end int, ok bool) {
	if pos >= len(runes) {
		return "", 0, false
	}
	rest := strings.ToLower(string(runes[pos:]))
	for _, q := range qualities {
		if strings.HasPrefix(rest, q.token) {
			return q.label, pos + len(q.token), true
		}
	}
	return "", 0, false
}

func isNoteLetter(r rune) bool {
	return (r >= 'A' && r <= 'G') || (r >= 'a' && r <= 'g')
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '_', '-', '.', '(', ')', '[', ']':
		return true
	}
	return false
}

func isBoundaryRune(r rune) bool {
	return isSeparator(r) || (r >= '0' && r <= '9')
}

func boundaryBefore(runes []rune, i int) bool {
	return i == 0 || isBoundaryRune(runes[i-1])
}

func boundaryAfter(runes []rune, i int) bool {
	return i >= len(runes) || isBoundaryRune(runes[i])
}
