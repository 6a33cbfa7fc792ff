package telephony

import (
	"net/http"
	"strconv"
	"strings"
)

// VoiceForm captures the subset of Twilio voice webhook fields we care
// about. Twilio sends application/x-www-form-urlencoded by default.
//
// Keep it provider-adapter-only; dialogue logic never sees raw form data.
type VoiceForm struct {
	CallSid      string
	AccountSid   string
	From         string
	To           string
	Direction    string
	CallStatus   string
	CallDuration string
	SpeechResult string
	Digits       string
}

func ParseVoiceForm(r *http.Request) (VoiceForm, error) {
	if err := r.ParseForm(); err != nil {
		return VoiceForm{}, err
	}
	f := VoiceForm{
		CallSid:      strings.TrimSpace(r.PostFormValue("CallSid")),
		AccountSid:   r.PostFormValue("AccountSid"),
		From:         strings.TrimSpace(r.PostFormValue("From")),
		To:           strings.TrimSpace(r.PostFormValue("To")),
		Direction:    r.PostFormValue("Direction"),
		CallStatus:   strings.ToLower(r.PostFormValue("CallStatus")),
		CallDuration: r.PostFormValue("CallDuration"),
		SpeechResult: strings.TrimSpace(r.PostFormValue("SpeechResult")),
		Digits:       strings.TrimSpace(r.PostFormValue("Digits")),
	}
	return f, nil
}

// DurationSec parses CallDuration; Twilio omits it on non-final callbacks.
func (f VoiceForm) DurationSec() int {
	n, err := strconv.Atoi(strings.TrimSpace(f.CallDuration))
	if err != nil {
		return 0
	}
	return n
}
