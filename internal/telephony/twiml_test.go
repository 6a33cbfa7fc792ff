package telephony

import (
	"strings"
	"testing"

	"dental-reception/internal/dialogue"
)

func testRenderer() PromptRenderer {
	return PromptRenderer{Voice: "alice", Language: "en-GB"}
}

func TestRender_IntentGather(t *testing.T) {
	out, err := testRenderer().Render(dialogue.Reply{Prompt: "How can I help?", Gather: dialogue.GatherIntent})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`action="/gather-intent"`,
		`input="speech dtmf"`,
		`numDigits="1"`,
		`hints="hours,address,prices,book"`,
		`voice="alice"`,
		`language="en-GB"`,
		`How can I help?`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRender_BookingGathers(t *testing.T) {
	name, err := testRenderer().Render(dialogue.Reply{Prompt: "Your name?", Gather: dialogue.GatherName})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(name, `action="/gather-booking"`) {
		t.Fatalf("name gather action wrong:\n%s", name)
	}
	if strings.Contains(name, "numDigits") {
		t.Fatalf("name gather should not set numDigits:\n%s", name)
	}

	tm, err := testRenderer().Render(dialogue.Reply{Prompt: "What time?", Gather: dialogue.GatherTime})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(tm, `action="/gather-booking"`) || !strings.Contains(tm, `input="speech dtmf"`) {
		t.Fatalf("time gather wrong:\n%s", tm)
	}
}

func TestRender_FollowUpGather(t *testing.T) {
	out, err := testRenderer().Render(dialogue.Reply{Prompt: "Anything else?", Gather: dialogue.GatherFollowUp})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, `action="/gather-intent"`) || !strings.Contains(out, `hints="yes,no,bye"`) {
		t.Fatalf("follow-up gather wrong:\n%s", out)
	}
}

func TestRender_FarewellHangsUp(t *testing.T) {
	out, err := testRenderer().Render(dialogue.Reply{Prompt: "Goodbye!", Gather: dialogue.GatherNone})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "<Hangup") {
		t.Fatalf("missing hangup:\n%s", out)
	}
	if strings.Contains(out, "<Gather") {
		t.Fatalf("farewell must not gather:\n%s", out)
	}
}

func TestRender_EscapesPromptText(t *testing.T) {
	out, err := testRenderer().Render(dialogue.Reply{Prompt: "Fish & chips < 5", Gather: dialogue.GatherNone})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "Fish &amp; chips &lt; 5") {
		t.Fatalf("prompt not escaped:\n%s", out)
	}
}

func TestRender_UnknownGather(t *testing.T) {
	if _, err := testRenderer().Render(dialogue.Reply{Prompt: "x", Gather: "bogus"}); err == nil {
		t.Fatalf("expected error for unknown gather kind")
	}
}
