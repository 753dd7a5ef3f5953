package server

import (
	"regexp"
	"strings"
)

var digestRegex = regexp.MustCompile(`^[0-9a-f]{64}$`)

func validateDigest(digest string) bool {
	return digestRegex.MatchString(strings.ToLower(strings.TrimSpace(digest)))
}
