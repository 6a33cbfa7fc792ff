package dialogue

// Fixed phrase tables. Selection is a pure index lookup; the caller injects
// the picker (random in production, constant in tests) so the state machine
// itself stays deterministic.

var defaultGreetings = []string{
	"Hi, %s. How can I help today?",
	"Hello, %s speaking, how can I help?",
	"Thanks for calling %s. What can I do for you?",
	"Hi there, %s. Are you calling to book, or for info?",
}

var defaultGoodbyes = []string{
	"Alright, take care and have a lovely day.",
	"Thanks for calling, bye for now.",
	"All the best, goodbye.",
	"Thanks again, bye bye.",
}

var holders = []string{
	"Okay.",
	"Sure.",
	"Right, got it.",
	"No problem.",
	"One moment.",
	"Alright, let me check.",
}

var intentClarifiers = []string{
	"Sorry, could you repeat that in a few words?",
	"I didn't quite catch that. Was that a booking, our hours, or prices?",
	"Sorry, could you say that again?",
	"I want to be sure I heard you right. Was it about hours, address, prices, or booking?",
}

var nameClarifiers = []string{
	"Sorry, who should I pop the booking under?",
	"I missed the name there, could you share it again?",
	"Just the name for the appointment, please?",
}

var timeClarifiers = []string{
	"What day and time works best for you?",
	"When would you like to come in?",
	"Could you tell me the day and time you prefer?",
}

var confirmations = []string{
	"I'll book you in for %s, under %s.",
	"You're all set for %s, %s.",
	"Booked: %s for %s.",
}

const (
	anythingElseLine = "Is there anything else I can help you with?"

	silenceReprompt = "Hello, I'm still on the line. Let me know if you'd like our opening hours, our address, our prices, or to book an appointment."

	menuOptionsLine = "You can ask about our opening hours, our address, our prices, or say you'd like to book an appointment. You can also press 1 for hours, 2 for our address, 3 for prices, or 4 to book."

	continuationLine = "What else can I help with? You can ask about our opening hours, our address, our prices, or let me know if you'd like to book an appointment."

	escalationLine = "I'm having a bit of trouble hearing you today. I'll pass your number to our front desk and someone will ring you back shortly."

	nothingAvailableLine = "Sorry, I can't see any free times in the diary right now."
)
