package core

import (
	"regexp"
	"strings"
)

// Personas are instructed to wrap their final argument between these
// delimiters, with scratch reasoning allowed before the opening one.
const (
	ArgumentOpen  = "---ARGUMENT---"
	ArgumentClose = "---END ARGUMENT---"
)

// ExtractFinalArgument extracts the final-answer segment from a persona's
// raw output. Precedence:
//  1. well-formed open+close delimiters: the text between them
//  2. open delimiter with no close: everything after the opening delimiter
//  3. no delimiters: the whole text is the final argument
func ExtractFinalArgument(raw string) string {
	open := strings.Index(raw, ArgumentOpen)
	if open < 0 {
		return strings.TrimSpace(raw)
	}

	rest := raw[open+len(ArgumentOpen):]
	if close := strings.Index(rest, ArgumentClose); close >= 0 {
		return strings.TrimSpace(rest[:close])
	}
	return strings.TrimSpace(rest)
}

// ExtractClarifyRequests collects embedded clarification requests from a
// persona's raw output. A persona that cannot proceed without a missing
// fact emits one "CLARIFY: <question>" line per question.
func ExtractClarifyRequests(raw string) []string {
	var questions []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "CLARIFY:") {
			continue
		}
		q := strings.TrimSpace(strings.TrimPrefix(line, "CLARIFY:"))
		if q != "" {
			questions = append(questions, q)
		}
	}
	return questions
}

// FactCheckFinding is one flagged claim with its clarification question.
type FactCheckFinding struct {
	Claim    string
	Question string
}

// ParseFactCheckFindings parses the fact-checker's response. The checker
// emits alternating "CLAIM:" and "QUESTION:" lines, or the single word
// NONE when nothing needs verification.
func ParseFactCheckFindings(raw string) []FactCheckFinding {
	var findings []FactCheckFinding
	var current *FactCheckFinding

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "CLAIM:"):
			if current != nil && current.Question != "" {
				findings = append(findings, *current)
			}
			current = &FactCheckFinding{Claim: strings.TrimSpace(strings.TrimPrefix(line, "CLAIM:"))}
		case strings.HasPrefix(line, "QUESTION:"):
			q := strings.TrimSpace(strings.TrimPrefix(line, "QUESTION:"))
			if current == nil {
				current = &FactCheckFinding{}
			}
			current.Question = q
		}
	}
	if current != nil && current.Question != "" {
		findings = append(findings, *current)
	}
	return findings
}

// ParseQuestions extracts discovery questions from a persona's response.
// Personas are instructed to emit "QUESTION:" lines; as a fallback, bare
// lines ending with a question mark are accepted.
func ParseQuestions(raw string) []string {
	var tagged []string
	var bare []string

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789. ")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "QUESTION:") {
			q := strings.TrimSpace(strings.TrimPrefix(line, "QUESTION:"))
			if q != "" {
				tagged = append(tagged, q)
			}
		} else if strings.HasSuffix(line, "?") {
			bare = append(bare, line)
		}
	}

	if len(tagged) > 0 {
		return tagged
	}
	return bare
}

var questionPunct = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
var questionSpace = regexp.MustCompile(`\s+`)

// NormalizeQuestion produces the dedup key for a question: lower-cased,
// punctuation stripped, whitespace collapsed.
func NormalizeQuestion(q string) string {
	q = strings.ToLower(q)
	q = questionPunct.ReplaceAllString(q, "")
	q = questionSpace.ReplaceAllString(q, " ")
	return strings.TrimSpace(q)
}

var winnerPattern = regexp.MustCompile(`(?i)winner\s*[:\-]?\s*\**\s*(advocate|skeptic|draw)`)

// ExtractWinner pulls the winner token out of a free-form verdict by
// matching the canonical "Winner: <role>" phrase. Returns WinnerUnknown
// when no phrase matches.
func ExtractWinner(verdict string) Winner {
	m := winnerPattern.FindStringSubmatch(verdict)
	if m == nil {
		return WinnerUnknown
	}
	switch strings.ToLower(m[1]) {
	case "advocate":
		return WinnerAdvocate
	case "skeptic":
		return WinnerSkeptic
	case "draw":
		return WinnerDraw
	}
	return WinnerUnknown
}
