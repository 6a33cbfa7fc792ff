package speech

// Intent is the caller's classified goal for one utterance.
type Intent string

const (
	IntentHours        Intent = "hours"
	IntentAddress      Intent = "address"
	IntentPrices       Intent = "prices"
	IntentBooking      Intent = "booking"
	IntentAvailability Intent = "availability"
	IntentGoodbye      Intent = "goodbye"
	IntentAffirm       Intent = "affirm"
	IntentUnknown      Intent = "unknown"
)

// Keyword tables include common speech-to-text misrecognitions on purpose.
var (
	bookingKeywords = []string{
		"book", "booking", "appointment", "apointment", "appoinment",
		"schedule", "reserve", "checkup", "check-up", "see the dentist",
		"visit", "buk", "buking",
	}
	hoursKeywords = []string{
		"hour", "hours", "opening", "opening hours", "opening time",
		"open hours", "open", "openin", "close", "closed", "closing",
		"closing time", "clozing",
	}
	availabilityKeywords = []string{
		"availability", "available", "what do you have", "what have you got",
		"what times", "times are available", "free slots", "free time",
		"free appointment", "open slots", "any slots", "any availability",
		"any time", "anytime", "today", "tomorrow", "monday", "tuesday",
		"wednesday", "wednsday", "thursday", "thur", "thurzday", "friday",
		"saturday", "saturdy",
	}
	addressKeywords = []string{
		"address", "addres", "where", "postcode", "post code", "located",
		"location", "directions", "direcsion", "find",
	}
	priceKeywords = []string{
		"price", "prices", "prize", "prise", "cost", "how much", "fee",
		"fees", "charges", "pricing",
	}
	goodbyeKeywords = []string{
		"bye", "bye bye", "bye-bye", "goodbye", "that's all", "thats all",
		"that is all", "that's it", "thats it", "nothing else", "no more",
		"finish", "no thanks", "no thank you",
	}
	affirmKeywords = []string{
		"yes", "yeah", "yep", "sure", "please", "ok", "okay", "alright",
		"sounds good",
	}
)

// Classify maps a noisy transcript to an intent. Priority order is fixed so
// "book for Wednesday" lands on booking, not availability. Empty or garbled
// input is IntentUnknown; Classify never panics.
func Classify(utterance string) Intent {
	text := normalize(utterance)
	if text == "" {
		return IntentUnknown
	}
	switch {
	case anyFuzzy(text, bookingKeywords, 2):
		return IntentBooking
	case anyFuzzy(text, hoursKeywords, 1):
		return IntentHours
	case anyFuzzy(text, availabilityKeywords, 2):
		return IntentAvailability
	case anyFuzzy(text, addressKeywords, 2):
		return IntentAddress
	case anyFuzzy(text, priceKeywords, 2):
		return IntentPrices
	case anyFuzzy(text, goodbyeKeywords, 2):
		return IntentGoodbye
	case anyFuzzy(text, affirmKeywords, 1):
		return IntentAffirm
	default:
		return IntentUnknown
	}
}

// ClassifyDigit maps the keypad shortcuts offered in the opening menu.
func ClassifyDigit(digit string) Intent {
	switch digit {
	case "1":
		return IntentHours
	case "2":
		return IntentAddress
	case "3":
		return IntentPrices
	case "4":
		return IntentBooking
	default:
		return IntentUnknown
	}
}

// IsInfo reports whether the intent is answered by a configured info line.
func (i Intent) IsInfo() bool {
	return i == IntentHours || i == IntentAddress || i == IntentPrices
}
