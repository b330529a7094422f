package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hackgods/operating-room-scheduling/internal/surgery"
)

// naiveLayout renders wall-clock times without a zone offset.
const naiveLayout = "2006-01-02T15:04:05"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(naiveLayout)
}

func toRequestResponse(req surgery.Request) OperationRequestResponse {
	return OperationRequestResponse{
		RequestID:  req.ID,
		Status:     string(req.Status),
		DoctorType: string(req.Category),
		RoomID:     req.ScheduledRoomID,
		StartTime:  formatTime(req.ScheduledStartTime),
		EndTime:    formatTime(req.ScheduledEndTime),
	}
}

func toRoomResponse(room surgery.RoomView) RoomResponse {
	resp := RoomResponse{
		RoomID:   room.ID,
		Machines: make([]string, 0, len(room.Machines)),
		Bookings: make([]BookingResponse, 0, len(room.Bookings)),
	}
	for _, m := range room.Machines {
		resp.Machines = append(resp.Machines, string(m))
	}
	for _, b := range room.Bookings {
		resp.Bookings = append(resp.Bookings, BookingResponse{
			StartTime: b.Start.Format(naiveLayout),
			EndTime:   b.End.Format(naiveLayout),
		})
	}
	return resp
}
