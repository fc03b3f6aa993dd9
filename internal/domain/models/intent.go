package models

// Intent is the closed set of top-level user requests.
type Intent string

const (
	IntentNone           Intent = ""
	IntentGreeting       Intent = "greeting"
	IntentQueryFares     Intent = "query_fares"
	IntentQueryHours     Intent = "query_hours"
	IntentStartBooking   Intent = "start_booking"
	IntentQueryServices  Intent = "query_services"
	IntentQueryContact   Intent = "query_contact"
	IntentFarewell       Intent = "farewell"
	IntentConfirmPayment Intent = "confirm_payment"
)
