package utils

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Smash smashes "funny characters" (which includes anything that's remotely tricky to type into a command line) in a string into the '_' character
func Smash(in string) string {
	var out strings.Builder
	for _, c := range in {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			out.WriteRune(c)
		} else {
			out.WriteByte('_')
		}
	}
	return out.String()
}

// string matching functions, in strictly increasing order of desperation
var Fuzzy = []func(input string, candidate string) bool{
	func(i string, c string) bool { return i == c },
	func(i string, c string) bool { return strings.EqualFold(i, c) },
	func(i string, c string) bool { return Smash(strings.ToUpper(i)) == Smash(strings.ToUpper(c)) },
	func(i string, c string) bool {
		return strings.HasPrefix(Smash(strings.ToUpper(c)), Smash(strings.ToUpper(i)))
	},
	func(i string, c string) bool {
		return strings.Contains(Smash(strings.ToUpper(c)), Smash(strings.ToUpper(i)))
	},
	// letters in order, anything in between: "bsinf" is BaseInfo
	func(i string, c string) bool { return fuzzy.MatchFold(i, c) },
}

var ErrNoMatch = errors.New("no match")
var ErrAmbiguous = errors.New("ambiguous")

// Fuzzy_match picks the one candidate that matches input at the least desperate level.
// what is the kind of thing being matched, for the error message.
//
// Returns the index into candidates.
func Fuzzy_match(candidates []string, input string, what string) (int, error) {
	for _, match := range Fuzzy {
		matches := []int{}
		seen := map[string]bool{}
		for i, c := range candidates {
			if match(input, c) && !seen[c] {
				matches = append(matches, i)
				seen[c] = true
			}
		}
		if len(matches) == 0 {
			continue
		}
		if len(matches) > 1 {
			names := []string{}
			for _, m := range matches {
				names = append(names, candidates[m])
			}
			return -1, fmt.Errorf("%w: %v could be anything from {%v}", ErrAmbiguous, input, strings.Join(names, ", "))
		}
		return matches[0], nil
	}

	return -1, fmt.Errorf("%w: %v could not be matched to a valid %v", ErrNoMatch, input, what)
}
