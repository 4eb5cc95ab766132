// SPDX-License-Identifier: MIT

// Package ussd implements the phone-menu state machine behind the
// Africa's Talking USSD webhook.
package ussd

import "fmt"

// Session states. Stored as strings in the session store so a schema change
// degrades to a fresh conversation instead of a decoding error.
const (
	StateMainMenu          = "MAIN_MENU"
	StateReportCategory    = "REPORT_CATEGORY"
	StateReportDescription = "REPORT_DESCRIPTION"
	StateReportLocation    = "REPORT_LOCATION"
	StateReportConfirm     = "REPORT_CONFIRM"
	StateCheckStatus       = "CHECK_STATUS"
)

// Reply is the total outcome of one USSD step: either a continuation prompt
// with the state to resume from, or a session-ending message. Nothing in the
// machine raises past this type.
type Reply struct {
	Message string
	State   string // next state, empty when End
	End     bool
}

// Continue builds a reply that keeps the session alive in state.
func Continue(state, message string) Reply {
	return Reply{Message: message, State: state}
}

// End builds a reply that terminates the session.
func End(message string) Reply {
	return Reply{Message: message, End: true}
}

// Render encodes the reply in the gateway's plain-text wire format:
// "CON " keeps the session open, "END " closes it.
func (r Reply) Render() string {
	if r.End {
		return "END " + r.Message
	}
	return "CON " + r.Message
}

// categories maps menu digits to report categories. Pure and fixed; any
// other digit is an invalid selection.
var categories = map[string]string{
	"1": "INFRASTRUCTURE",
	"2": "SECURITY",
	"3": "HEALTH",
	"4": "EDUCATION",
	"5": "ENVIRONMENT",
}

const (
	mainMenuText = "Welcome to AbiaHub\n" +
		"1. Submit Report\n" +
		"2. Check Report Status\n" +
		"3. Emergency Numbers\n" +
		"4. Exit"

	categoryMenuText = "Select Report Category:\n" +
		"1. Infrastructure\n" +
		"2. Security\n" +
		"3. Healthcare\n" +
		"4. Education\n" +
		"5. Environment\n" +
		"0. Back"

	emergencyMenuText = "Emergency Numbers:\n" +
		"Police: 112\n" +
		"Fire: 112\n" +
		"Ambulance: 112\n" +
		"0. Back"

	descriptionPrompt = "Enter report description:"
	locationPrompt    = "Enter location (LGA, Area):"
	statusPrompt      = "Enter your Report ID:"

	descriptionTooShort = "Description too short. Please provide more details."
	locationTooShort    = "Please provide more location details."
	invalidCategory     = "Invalid selection. Try again."

	goodbyeText      = "Thank you for using AbiaHub"
	cancelledText    = "Report cancelled."
	submitFailedText = "Failed to submit report. Please try again."
	unavailableText  = "Service temporarily unavailable. Please try again later."
)

// ServiceUnavailable is the terminal reply for unexpected failures. The
// gateway webhook must always receive a well-formed body, never a stack
// trace or a 500.
func ServiceUnavailable() Reply {
	return End(unavailableText)
}

func confirmSummary(category, description, location string) string {
	return fmt.Sprintf("Confirm Report Details:\n"+
		"Category: %s\n"+
		"Description: %s\n"+
		"Location: %s\n\n"+
		"1. Confirm\n"+
		"2. Cancel", category, description, location)
}
