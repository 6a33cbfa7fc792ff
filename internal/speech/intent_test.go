package speech

import "testing"

func TestClassify_CoreIntents(t *testing.T) {
	cases := []struct {
		in   string
		want Intent
	}{
		{"I'd like to book an appointment", IntentBooking},
		{"can I schedule a visit", IntentBooking},
		{"what are your opening hours", IntentHours},
		{"when do you close", IntentHours},
		{"where are you located", IntentAddress},
		{"what's the postcode", IntentAddress},
		{"what are your prices", IntentPrices},
		{"how much is whitening", IntentPrices},
		{"what do you have on wednesday", IntentAvailability},
		{"any slots tomorrow", IntentAvailability},
		{"no thanks, that's all", IntentGoodbye},
		{"goodbye", IntentGoodbye},
		{"yes please", IntentAffirm},
	}
	for _, c := range cases {
		if got := Classify(c.in); got != c.want {
			t.Fatalf("Classify(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestClassify_ToleratesMisrecognitions(t *testing.T) {
	cases := []struct {
		in   string
		want Intent
	}{
		{"buk an apointment", IntentBooking},
		{"what time are you clozing", IntentHours},
		{"anything on saturdy", IntentAvailability},
		{"whats the addres", IntentAddress},
		{"whats the prize of a filling", IntentPrices},
	}
	for _, c := range cases {
		if got := Classify(c.in); got != c.want {
			t.Fatalf("Classify(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestClassify_ShortWordsDoNotDrift(t *testing.T) {
	// "bye" is two edits from "buk"; fuzzy matching must not turn a
	// goodbye into a booking.
	if got := Classify("bye bye"); got != IntentGoodbye {
		t.Fatalf("Classify(bye bye) = %s, want goodbye", got)
	}
}

func TestClassify_BookingBeatsAvailability(t *testing.T) {
	if got := Classify("book me in for wednesday"); got != IntentBooking {
		t.Fatalf("got %s, want booking", got)
	}
}

func TestClassify_Unknown(t *testing.T) {
	for _, in := range []string{"", "   ", "???", "zzz qqq blorp"} {
		if got := Classify(in); got != IntentUnknown {
			t.Fatalf("Classify(%q) = %s, want unknown", in, got)
		}
	}
}

func TestClassifyDigit(t *testing.T) {
	cases := map[string]Intent{
		"1": IntentHours,
		"2": IntentAddress,
		"3": IntentPrices,
		"4": IntentBooking,
		"9": IntentUnknown,
		"":  IntentUnknown,
	}
	for digit, want := range cases {
		if got := ClassifyDigit(digit); got != want {
			t.Fatalf("ClassifyDigit(%q) = %s, want %s", digit, got, want)
		}
	}
}

func TestIntent_IsInfo(t *testing.T) {
	for _, i := range []Intent{IntentHours, IntentAddress, IntentPrices} {
		if !i.IsInfo() {
			t.Fatalf("%s should be info", i)
		}
	}
	for _, i := range []Intent{IntentBooking, IntentAvailability, IntentGoodbye, IntentAffirm, IntentUnknown} {
		if i.IsInfo() {
			t.Fatalf("%s should not be info", i)
		}
	}
}
