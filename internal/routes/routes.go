package routes

const (
	// Health
	Health = "/health"

	// Caregiver EVV endpoints
	VisitsClockIn  = "/api/v1/visits/clock-in"
	VisitsClockOut = "/api/v1/visits/clock-out"

	// Scheduling endpoints
	ShiftsBase      = "/api/v1/shifts"
	ShiftsByID      = "/api/v1/shifts/{id}"
	ShiftsMy        = "/api/v1/shifts/my"
	ShiftsConflicts = "/api/v1/shifts/conflicts"
	ShiftsCancel    = "/api/v1/shifts/cancel"
	ShiftsMissed    = "/api/v1/shifts/missed"
)
