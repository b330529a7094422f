package api

type ScheduleRequest struct {
	DoctorType string `json:"doctor_type"`
}

// OperationRequestResponse mirrors surgery.Request. Slot fields are present
// only when the request is SCHEDULED.
type OperationRequestResponse struct {
	RequestID  int64  `json:"request_id"`
	Status     string `json:"status"`
	DoctorType string `json:"doctor_type"`
	RoomID     *int   `json:"room_id,omitempty"`
	StartTime  string `json:"start_time,omitempty"`
	EndTime    string `json:"end_time,omitempty"`
}

type BookingResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type RoomResponse struct {
	RoomID   int               `json:"room_id"`
	Machines []string          `json:"machines"`
	Bookings []BookingResponse `json:"bookings"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
