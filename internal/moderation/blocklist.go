package moderation

import (
	"regexp"
	"strings"
)

// Hard profanity patterns. These match common leetspeak and repeated
// letter obfuscations so that a prompt-bypassed classifier can never
// let them through. Matching is case-insensitive on the lowercased
// input.
var blockedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bf+[u$@*]+c*k+\w*\b`),
	regexp.MustCompile(`\bfu+k+\w*\b`),
	regexp.MustCompile(`\bs+h+[i1!]+t+\w*\b`),
	regexp.MustCompile(`\bb[i1!]tch\w*\b`),
	regexp.MustCompile(`\ba[s$]{2,}hole\w*\b`),
	regexp.MustCompile(`\bc[u*]nt\w*\b`),
	regexp.MustCompile(`\bd[i1!]ck\s*head\w*\b`),
	regexp.MustCompile(`\bwh[o0]re\w*\b`),
	regexp.MustCompile(`\bsl[u*]t\w*\b`),
	regexp.MustCompile(`\bb[a@]st[a@]rd\w*\b`),
	regexp.MustCompile(`\bm[o0]r[o0]n\b`),
	regexp.MustCompile(`\b[i1!]d[i1!][o0]t\b`),
	regexp.MustCompile(`\bimbecile\b`),
	regexp.MustCompile(`\bretard\w*\b`),
	regexp.MustCompile(`\bscumbag\w*\b`),
	regexp.MustCompile(`\bp[i1!]ss\s*off\b`),
	regexp.MustCompile(`\bg[o0]\s*t[o0]\s*hell\b`),
}

// ContainsBlockedTerm reports whether text trips the hard filter.
func ContainsBlockedTerm(text string) bool {
	if text == "" {
		return false
	}
	lowered := strings.ToLower(text)
	for _, pattern := range blockedPatterns {
		if pattern.MatchString(lowered) {
			return true
		}
	}
	return false
}
