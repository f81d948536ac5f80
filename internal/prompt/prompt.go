// Package prompt defines the persona system prompts and phase templates
// used for every generation call.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/alienxp03/sparring/internal/core"
)

// SystemPrompt returns the role-fixed system prompt for a persona.
func SystemPrompt(role core.Role) string {
	switch role {
	case core.RoleAdvocate:
		return advocateSystem
	case core.RoleSkeptic:
		return skepticSystem
	}
	return ""
}

const advocateSystem = `You are the Advocate in a structured debate about a startup idea. Your approach:
- Argue FOR the idea's viability and potential
- Highlight market opportunities and strengths
- Counter the Skeptic's objections with evidence and reasoning
- Acknowledge real risks but show how they can be mitigated
- Be persuasive while remaining grounded in the facts you were given
- Never invent facts about the startup itself; if a fact you need is missing, emit a line "CLARIFY: <question>" instead of guessing

Think through your reasoning first, then put your final argument between ` + core.ArgumentOpen + ` and ` + core.ArgumentClose + `.`

const skepticSystem = `You are the Skeptic in a structured debate about a startup idea. Your approach:
- Question assumptions and identify risks
- Probe for weaknesses in the business model and execution plan
- Demand evidence for the Advocate's claims
- Point out competitive and market headwinds
- Be rigorous but intellectually honest
- Never invent facts about the startup itself; if a fact you need is missing, emit a line "CLARIFY: <question>" instead of guessing

Think through your reasoning first, then put your final argument between ` + core.ArgumentOpen + ` and ` + core.ArgumentClose + `.`

const judgeSystem = `You are an impartial judge evaluating a structured debate between an Advocate and a Skeptic about a startup idea. Weigh the strength of reasoning and evidence on both sides. Do not reward volume or rhetoric over substance.`

const factCheckerSystem = `You are a fact-checker reviewing a single debate argument about a startup. Your only job is to flag claims about the startup itself (team, funding, traction, internal technical choices) that are not supported by the provided context or confirmed facts. General market statistics, competitor facts, and purely logical argumentation are NOT your concern.`

const arguePrompt = `The startup idea under debate:
"{{.Idea}}"
{{if .SupportingContext}}
Supporting material provided by the founder:
{{.SupportingContext}}
{{end}}{{if .Clarifications}}
Facts confirmed by the founder:
{{.Clarifications}}
{{end}}{{if .PriorArguments}}
Your previous arguments in this debate (do not repeat yourself):
{{.PriorArguments}}
{{end}}{{if .Opening}}
Make your opening argument. Round {{.Round}}.{{else}}
Your opponent just argued:
---
{{.OpponentArgument}}
---

Counter their points directly. Round {{.Round}}.{{end}}`

const discoverPrompt = `A founder has submitted this startup idea for debate:
"{{.Idea}}"
{{if .SupportingContext}}
Supporting material:
{{.SupportingContext}}
{{end}}
Before the debate begins, ask the founder 2-3 clarifying questions whose answers would most change how you argue your side. Do NOT argue yet.

Emit one line per question in this exact format:
QUESTION: <your question>`

const factCheckPrompt = `The startup idea:
"{{.Idea}}"
{{if .SupportingContext}}
Supporting material:
{{.SupportingContext}}
{{end}}{{if .Clarifications}}
Facts already confirmed by the founder:
{{.Clarifications}}
{{end}}
Draft argument to review:
---
{{.Argument}}
---

List every unverified claim about the startup itself, with a question the founder could answer to verify it. Use this exact format, one pair per finding:
CLAIM: <the claim>
QUESTION: <the verification question>

If there is nothing to flag, respond with the single word NONE.`

const judgePrompt = `The startup idea under debate:
"{{.Idea}}"
{{if .TruncationNotice}}
{{.TruncationNotice}}
{{end}}
Debate history:
{{.History}}

Evaluate the debate. Which side made the stronger case for or against this startup idea? Consider evidence, reasoning, and how well each side engaged with the other's points.

End your evaluation with exactly one line in this format:
Winner: <Advocate|Skeptic|Draw>`

const analyzePrompt = `A founder submitted this as a startup idea:
"{{.Idea}}"

Is this description clear enough to debate? If the idea is understandable, respond with the single word CLEAR. If it is too vague or terse to debate meaningfully, respond with exactly one line:
QUESTION: <one question asking what the product actually is>`

const titlePrompt = `Summarize the following startup idea as a 3-4 word title.
Idea: "{{.Idea}}"

Respond with ONLY the title. No punctuation.`

// ArgueData carries everything a persona turn prompt needs.
type ArgueData struct {
	Idea              string
	SupportingContext string
	Clarifications    string
	PriorArguments    string
	OpponentArgument  string
	Opening           bool
	Round             int
}

// BuildArgue renders the argue prompt for a role.
func BuildArgue(role core.Role, data ArgueData) (system, user string, err error) {
	user, err = render("argue", arguePrompt, data)
	return SystemPrompt(role), user, err
}

// BuildDiscover renders the pre-debate question-gathering prompt for a role.
func BuildDiscover(role core.Role, idea, supportingContext string) (system, user string, err error) {
	user, err = render("discover", discoverPrompt, map[string]string{
		"Idea":              idea,
		"SupportingContext": supportingContext,
	})
	return SystemPrompt(role), user, err
}

// BuildFactCheck renders the fact-checker prompt for a draft argument.
func BuildFactCheck(idea, supportingContext, clarifications, argument string) (system, user string, err error) {
	user, err = render("factcheck", factCheckPrompt, map[string]string{
		"Idea":              idea,
		"SupportingContext": supportingContext,
		"Clarifications":    clarifications,
		"Argument":          argument,
	})
	return factCheckerSystem, user, err
}

// BuildJudge renders the judge prompt. roundsShown < roundsTotal produces
// an explicit truncation notice so the evaluation degrades gracefully.
func BuildJudge(idea, history string, roundsShown, roundsTotal int) (system, user string, err error) {
	notice := ""
	if roundsShown < roundsTotal {
		notice = fmt.Sprintf("Note: showing the last %d of %d rounds.", roundsShown, roundsTotal)
	}
	user, err = render("judge", judgePrompt, map[string]string{
		"Idea":             idea,
		"History":          history,
		"TruncationNotice": notice,
	})
	return judgeSystem, user, err
}

// BuildAnalyze renders the idea-analyzer prompt.
func BuildAnalyze(idea string) (system, user string, err error) {
	user, err = render("analyze", analyzePrompt, map[string]string{"Idea": idea})
	return "", user, err
}

// BuildTitle renders the auto-title prompt.
func BuildTitle(idea string) (system, user string, err error) {
	user, err = render("title", titlePrompt, map[string]string{"Idea": idea})
	return "", user, err
}

func render(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", name, err)
	}
	return buf.String(), nil
}

// FormatClarifications formats confirmed clarifications as Q/A pairs.
func FormatClarifications(clarifications []core.Clarification) string {
	if len(clarifications) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, c := range clarifications {
		sb.WriteString(fmt.Sprintf("Q: %s\nA: %s\n", c.Question, c.Answer))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatPriorArguments formats a role's own prior final arguments as
// numbered excerpts. Only the most recent window entries are kept (oldest
// dropped first), each truncated to excerptLen runes.
func FormatPriorArguments(arguments []string, window, excerptLen int) string {
	if len(arguments) == 0 {
		return ""
	}
	if len(arguments) > window {
		arguments = arguments[len(arguments)-window:]
	}
	var sb strings.Builder
	for i, arg := range arguments {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, excerpt(arg, excerptLen)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func excerpt(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// FormatHistory formats completed turns for the judge, grouped by round.
func FormatHistory(turns []*core.Turn) string {
	var sb strings.Builder
	for _, t := range turns {
		sb.WriteString(fmt.Sprintf("\n--- %s (Round %d) ---\n%s\n", t.Role.DisplayName(), t.Round, t.FinalArgument))
	}
	return sb.String()
}
