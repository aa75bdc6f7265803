package password

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const MinLen = 8

var ErrTooShort = errors.New("password must be at least 8 characters")

// Warning accompanies an accepted password that scored below 3.
type Warning struct {
	Score       int      `json:"score"` // 1..4
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions"`
}

// Validate trims pwd and rejects it only when shorter than MinLen. Personal
// inputs such as the email or username count against the score when pwd contains them.
func Validate(pwd string, personal ...string) (string, *Warning, error) {
	pwd = strings.TrimSpace(pwd)
	n := utf8.RuneCountInString(pwd)
	if n < MinLen {
		return pwd, nil, ErrTooShort
	}
	if s := score(pwd, n, personal); s < 3 {
		w := levels[s-1]
		return pwd, &w, nil
	}
	return pwd, nil, nil
}

var levels = [2]Warning{
	{Score: 1, Message: "Too short or predictable.", Suggestions: []string{"Use at least 10 to 12 characters of mixed types."}},
	{Score: 2, Message: "Short or low variety.", Suggestions: []string{"Add length and mix letters with digits or symbols."}},
}

// score grades length and character variety on 1..4; anything reaching it is at least MinLen long.
func score(pwd string, n int, personal []string) int {
	var lower, upper, digit, other int
	for _, r := range pwd {
		switch {
		case unicode.IsLower(r):
			lower = 1
		case unicode.IsUpper(r):
			upper = 1
		case unicode.IsDigit(r):
			digit = 1
		default:
			other = 1
		}
	}
	variety := lower + upper + digit + other
	if n < 16 && containsAny(strings.ToLower(pwd), personal) && variety > 1 {
		variety--
	}

	switch {
	case n >= 14 && variety >= 3:
		return 4
	case n >= 12 && variety >= 3:
		return 3
	case n >= 10 && variety >= 2:
		return 2
	default:
		return 1
	}
}

func containsAny(pwd string, inputs []string) bool {
	for _, in := range inputs {
		if in = strings.ToLower(strings.TrimSpace(in)); in != "" && strings.Contains(pwd, in) {
			return true
		}
	}
	return false
}
