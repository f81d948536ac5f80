package prompt

import (
	"strings"
	"testing"

	"github.com/alienxp03/sparring/internal/core"
)

func TestBuildArgue_Opening(t *testing.T) {
	_, user, err := BuildArgue(core.RoleAdvocate, ArgueData{
		Idea:    "AI tutoring platform",
		Opening: true,
		Round:   1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(user, "opening argument") {
		t.Error("opening turn should instruct an opening argument")
	}
	if strings.Contains(user, "Your opponent just argued") {
		t.Error("opening turn should not reference an opponent argument")
	}
}

func TestBuildArgue_CounterWithClarifications(t *testing.T) {
	clarifications := FormatClarifications([]core.Clarification{
		{Question: "How many users?", Answer: "1,200 beta users"},
		{Question: "Is there revenue?", Answer: "Not yet"},
	})
	_, user, err := BuildArgue(core.RoleSkeptic, ArgueData{
		Idea:             "AI tutoring platform",
		Clarifications:   clarifications,
		OpponentArgument: "The market is enormous.",
		Round:            2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Q: How many users?", "A: 1,200 beta users", "Q: Is there revenue?", "A: Not yet", "The market is enormous."} {
		if !strings.Contains(user, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestFormatPriorArguments_Window(t *testing.T) {
	args := []string{"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"}
	got := FormatPriorArguments(args, 8, 100)
	if strings.Contains(got, "one") || strings.Contains(got, "two") {
		t.Error("oldest entries beyond the window must be dropped")
	}
	if !strings.Contains(got, "three") || !strings.Contains(got, "ten") {
		t.Error("most recent entries must be kept")
	}
}

func TestFormatPriorArguments_Excerpt(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := FormatPriorArguments([]string{long}, 8, 100)
	if len(got) > 120 {
		t.Errorf("excerpt not truncated, len=%d", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("truncated excerpt should end with ellipsis")
	}
}

func TestBuildJudge_TruncationNotice(t *testing.T) {
	_, user, err := BuildJudge("idea", "history", 10, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(user, "showing the last 10 of 14 rounds") {
		t.Error("judge prompt should disclose truncation")
	}

	_, user, err = BuildJudge("idea", "history", 3, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(user, "showing the last") {
		t.Error("no truncation notice expected when all rounds are shown")
	}
}

func TestSystemPrompts(t *testing.T) {
	if !strings.Contains(SystemPrompt(core.RoleAdvocate), "Advocate") {
		t.Error("advocate system prompt should name the role")
	}
	if !strings.Contains(SystemPrompt(core.RoleSkeptic), "Skeptic") {
		t.Error("skeptic system prompt should name the role")
	}
	if !strings.Contains(SystemPrompt(core.RoleAdvocate), core.ArgumentOpen) {
		t.Error("system prompt should instruct the argument delimiters")
	}
}
