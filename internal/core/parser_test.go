package core

import (
	"reflect"
	"testing"
)

func TestExtractFinalArgument_WellFormed(t *testing.T) {
	raw := "Let me think about this.\n---ARGUMENT---\nThe idea is strong because of X.\n---END ARGUMENT---\ntrailing noise"
	got := ExtractFinalArgument(raw)
	want := "The idea is strong because of X."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractFinalArgument_MissingClose(t *testing.T) {
	raw := "scratch reasoning here\n---ARGUMENT---\nEverything after the opener.\nIncluding this line."
	got := ExtractFinalArgument(raw)
	want := "Everything after the opener.\nIncluding this line."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractFinalArgument_NoDelimiters(t *testing.T) {
	raw := "  Just a plain response with no markers.  "
	got := ExtractFinalArgument(raw)
	want := "Just a plain response with no markers."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractClarifyRequests(t *testing.T) {
	raw := "I cannot argue this without more facts.\nCLARIFY: How many paying users are there?\nCLARIFY: What is the burn rate?\nSome other line."
	got := ExtractClarifyRequests(raw)
	want := []string{"How many paying users are there?", "What is the burn rate?"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractClarifyRequests_None(t *testing.T) {
	if got := ExtractClarifyRequests("A normal argument with no signals."); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestParseFactCheckFindings(t *testing.T) {
	raw := `CLAIM: The team claims 50,000 paying users
QUESTION: How many paying users does the startup currently have?
CLAIM: Mentions a proprietary matching algorithm
QUESTION: Is the matching algorithm built in-house?`

	got := ParseFactCheckFindings(raw)
	if len(got) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(got))
	}
	if got[0].Claim != "The team claims 50,000 paying users" {
		t.Errorf("unexpected claim: %q", got[0].Claim)
	}
	if got[1].Question != "Is the matching algorithm built in-house?" {
		t.Errorf("unexpected question: %q", got[1].Question)
	}
}

func TestParseFactCheckFindings_None(t *testing.T) {
	if got := ParseFactCheckFindings("NONE"); len(got) != 0 {
		t.Errorf("expected no findings, got %v", got)
	}
	// A claim without a question is dropped.
	if got := ParseFactCheckFindings("CLAIM: dangling claim"); len(got) != 0 {
		t.Errorf("expected no findings, got %v", got)
	}
}

func TestParseQuestions_Tagged(t *testing.T) {
	raw := "Here are my questions:\nQUESTION: Who is the target customer?\nQUESTION: What does it cost?"
	got := ParseQuestions(raw)
	want := []string{"Who is the target customer?", "What does it cost?"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseQuestions_BareFallback(t *testing.T) {
	raw := "1. Who pays for this?\n2. Is there a working prototype?\nNot a question."
	got := ParseQuestions(raw)
	want := []string{"Who pays for this?", "Is there a working prototype?"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNormalizeQuestion(t *testing.T) {
	a := NormalizeQuestion("Who is the  target customer?")
	b := NormalizeQuestion("who is the target customer")
	if a != b {
		t.Errorf("normalization mismatch: %q vs %q", a, b)
	}
}

func TestExtractWinner(t *testing.T) {
	cases := []struct {
		verdict string
		want    Winner
	}{
		{"After weighing both sides... Winner: Advocate", WinnerAdvocate},
		{"winner - skeptic", WinnerSkeptic},
		{"**Winner: Draw**", WinnerDraw},
		{"The debate was inconclusive.", WinnerUnknown},
	}
	for _, c := range cases {
		if got := ExtractWinner(c.verdict); got != c.want {
			t.Errorf("ExtractWinner(%q) = %s, want %s", c.verdict, got, c.want)
		}
	}
}
