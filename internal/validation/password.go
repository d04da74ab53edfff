package validation

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// PasswordMinLength is the minimum accepted password length.
	PasswordMinLength = 8
	maxSimilarity     = 0.7
)

//go:embed common_passwords.txt
var commonPasswordsRaw string

var commonPasswords = loadCommonPasswords(commonPasswordsRaw)

var nonWord = regexp.MustCompile(`\W+`)

func loadCommonPasswords(raw string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, line := range strings.Split(raw, "\n") {
		line = strings.ToLower(strings.TrimSpace(line))
		if line != "" {
			out[line] = struct{}{}
		}
	}
	return out
}

// ValidatePassword returns every rule password breaks. attrs are the user's
// own values (username, names, email) the password must not resemble.
func ValidatePassword(password string, attrs ...string) []string {
	var problems []string

	for _, attr := range attrs {
		if attr == "" {
			continue
		}
		if tooSimilar(password, attr) {
			problems = append(problems, "The password is too similar to your personal information.")
			break
		}
	}

	if utf8.RuneCountInString(password) < PasswordMinLength {
		problems = append(problems, fmt.Sprintf(
			"This password is too short. It must contain at least %d characters.", PasswordMinLength))
	}

	if _, common := commonPasswords[strings.ToLower(strings.TrimSpace(password))]; common {
		problems = append(problems, "This password is too common.")
	}

	if password != "" && isNumeric(password) {
		problems = append(problems, "This password is entirely numeric.")
	}

	return problems
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// tooSimilar compares password against attr and each word of attr.
func tooSimilar(password, attr string) bool {
	pw := strings.ToLower(password)
	value := strings.ToLower(attr)
	parts := append([]string{value}, nonWord.Split(value, -1)...)
	for _, part := range parts {
		if part == "" {
			continue
		}
		if similarity(pw, part) >= maxSimilarity {
			return true
		}
	}
	return false
}

// similarity is the Ratcliff/Obershelp ratio 2*M/T of a and b.
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matching(ra, rb)) / float64(total)
}

func matching(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	i, j, n := longestCommon(a, b)
	if n == 0 {
		return 0
	}
	return n + matching(a[:i], b[:j]) + matching(a[i+n:], b[j+n:])
}

// longestCommon returns the start offsets and length of the longest common run.
func longestCommon(a, b []rune) (int, int, int) {
	bestI, bestJ, bestN := 0, 0, 0
	prev := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		cur := make([]int, len(b)+1)
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > bestN {
					bestN = cur[j]
					bestI, bestJ = i-cur[j], j-cur[j]
				}
			}
		}
		prev = cur
	}
	return bestI, bestJ, bestN
}
