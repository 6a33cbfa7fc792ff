package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"

	"dental-reception/internal/dialogue"
)

// Minimal TwiML builder. It intentionally avoids any provider SDK
// dependency; only the verbs this application emits are modeled.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type twimlGather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	Action        string   `xml:"action,attr"`
	Method        string   `xml:"method,attr"`
	Timeout       int      `xml:"timeout,attr"`
	SpeechTimeout string   `xml:"speechTimeout,attr"`
	BargeIn       bool     `xml:"bargeIn,attr"`
	Language      string   `xml:"language,attr,omitempty"`
	Hints         string   `xml:"hints,attr,omitempty"`
	NumDigits     int      `xml:"numDigits,attr,omitempty"`
	Say           twimlSay
}

const (
	actionGatherIntent  = "/gather-intent"
	actionGatherBooking = "/gather-booking"
)

// PromptRenderer maps a dialogue Reply onto TwiML. Voice and language come
// from config; the renderer is the only place that knows gather wiring.
type PromptRenderer struct {
	Voice    string
	Language string
}

// Render produces the TwiML document for one turn. Every gather is
// speech-first with barge-in; the intent gather also accepts the 1-4
// keypad shortcuts.
func (r PromptRenderer) Render(reply dialogue.Reply) (string, error) {
	var doc twimlResponse

	say := twimlSay{Voice: r.Voice, Language: r.Language, Text: reply.Prompt}

	switch reply.Gather {
	case dialogue.GatherNone:
		doc.Verbs = append(doc.Verbs, say, twimlHangup{})
	case dialogue.GatherIntent:
		doc.Verbs = append(doc.Verbs, r.gather(say, actionGatherIntent, "speech dtmf", "hours,address,prices,book", 1))
	case dialogue.GatherFollowUp:
		doc.Verbs = append(doc.Verbs, r.gather(say, actionGatherIntent, "speech", "yes,no,bye", 0))
	case dialogue.GatherName:
		doc.Verbs = append(doc.Verbs, r.gather(say, actionGatherBooking, "speech", "", 0))
	case dialogue.GatherTime:
		doc.Verbs = append(doc.Verbs, r.gather(say, actionGatherBooking, "speech dtmf", "", 0))
	default:
		return "", errors.New("telephony: unknown gather kind")
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r PromptRenderer) gather(say twimlSay, action, input, hints string, numDigits int) twimlGather {
	return twimlGather{
		Input:         input,
		Action:        action,
		Method:        "POST",
		Timeout:       3,
		SpeechTimeout: "auto",
		BargeIn:       true,
		Language:      r.Language,
		Hints:         hints,
		NumDigits:     numDigits,
		Say:           say,
	}
}
