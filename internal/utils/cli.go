package utils

import (
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/pkg/errors"
)

// SplitStringIntoCommandAndArguments splits a shell-style input line into a
// lower-cased command name and its arguments. Quotes and escapes follow
// POSIX shell rules, so `put "ab cd" 10` is not a valid line (the credential
// would contain a space) but `put 'abcd' 10` is.
func SplitStringIntoCommandAndArguments(line string) (string, []string, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return "", nil, errors.Wrap(err, "split input")
	}

	if len(words) == 0 {
		return "", nil, errors.New("empty command")
	}

	return strings.ToLower(words[0]), words[1:], nil
}
