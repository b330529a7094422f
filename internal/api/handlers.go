package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/operating-room-scheduling/internal/surgery"
)

func scheduleHandler(svc Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.DoctorType == "" {
			writeError(w, http.StatusBadRequest, "missing_doctor_type", "Missing doctor_type in payload")
			return
		}

		opReq, err := svc.Schedule(r.Context(), req.DoctorType)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		status := http.StatusAccepted
		if opReq.Status == surgery.StatusScheduled {
			status = http.StatusOK
		}
		writeJSON(w, status, toRequestResponse(opReq))
	}
}

func getRequestHandler(svc Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request_id", "id must be a positive integer")
			return
		}

		opReq, err := svc.Request(id)
		if err != nil {
			if errors.Is(err, surgery.ErrRequestNotFound) {
				writeError(w, http.StatusNotFound, "request_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, toRequestResponse(opReq))
	}
}

func listQueueHandler(svc Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		queued := svc.Queue()
		resp := make([]OperationRequestResponse, 0, len(queued))
		for _, req := range queued {
			resp = append(resp, toRequestResponse(req))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listRoomsHandler(svc Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms := svc.Rooms()
		resp := make([]RoomResponse, 0, len(rooms))
		for _, room := range rooms {
			resp = append(resp, toRoomResponse(room))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleScheduleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, surgery.ErrUnknownCategory):
		writeError(w, http.StatusUnprocessableEntity, "unknown_doctor_type", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
