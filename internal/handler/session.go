package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"scanstation/internal/dto"
	"scanstation/internal/logger"
	"scanstation/internal/session"
)

// SessionController is the part of the session the HTTP API drives.
type SessionController interface {
	State() session.State
	Image() *session.CapturedImage
	Activate(ctx context.Context, target session.Mode) error
	Deactivate()
	SetMode(ctx context.Context, target session.Mode) error
	Capture() error
	Retake() error
	Submit(ctx context.Context) error
}

type modeRequest struct {
	Mode string `json:"mode"`
}

// GetSessionHandler returns the current session state.
func GetSessionHandler(ctrl SessionController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ctrl.State())
	}
}

// ActivateHandler starts the camera in the requested mode ("capture" when
// the body is empty).
func ActivateHandler(ctrl SessionController, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode, err := readMode(r, session.Capturing)
		if err != nil {
			writeSessionError(w, ctrl, err)
			return
		}

		if err := ctrl.Activate(r.Context(), mode); err != nil {
			logger.Warning("Activate %s failed: %v", mode, err)
			writeSessionError(w, ctrl, err)
			return
		}
		writeJSON(w, http.StatusOK, ctrl.State())
	}
}

// DeactivateHandler releases the camera.
func DeactivateHandler(ctrl SessionController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl.Deactivate()
		writeJSON(w, http.StatusOK, ctrl.State())
	}
}

// SetModeHandler switches an active camera between capture and scan.
func SetModeHandler(ctrl SessionController, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode, err := readMode(r, session.Idle)
		if err == nil && mode == session.Idle {
			err = session.ErrInvalidMode
		}
		if err != nil {
			writeSessionError(w, ctrl, err)
			return
		}

		if err := ctrl.SetMode(r.Context(), mode); err != nil {
			logger.Warning("Switch to %s failed: %v", mode, err)
			writeSessionError(w, ctrl, err)
			return
		}
		writeJSON(w, http.StatusOK, ctrl.State())
	}
}

// CaptureHandler takes a still from the live stream.
func CaptureHandler(ctrl SessionController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ctrl.Capture(); err != nil {
			writeSessionError(w, ctrl, err)
			return
		}
		writeJSON(w, http.StatusOK, ctrl.State())
	}
}

// RetakeHandler discards the captured image.
func RetakeHandler(ctrl SessionController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ctrl.Retake(); err != nil {
			writeSessionError(w, ctrl, err)
			return
		}
		writeJSON(w, http.StatusOK, ctrl.State())
	}
}

// SubmitHandler sends the captured image for classification and answers
// once the result is known.
func SubmitHandler(ctrl SessionController, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ctrl.Submit(r.Context()); err != nil {
			logger.Warning("Submit failed: %v", err)
			writeSessionError(w, ctrl, err)
			return
		}
		writeJSON(w, http.StatusOK, ctrl.State())
	}
}

// CapturedImageHandler serves the captured still.
func CapturedImageHandler(ctrl SessionController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		img := ctrl.Image()
		if img == nil {
			http.Error(w, "No captured image", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", img.Format)
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		w.Write(img.Data)
	}
}

// readMode decodes {"mode": "..."}; an empty body yields fallback.
func readMode(r *http.Request, fallback session.Mode) (session.Mode, error) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return session.Idle, session.ErrInvalidMode
	}
	if req.Mode == "" {
		if fallback == session.Idle {
			return session.Idle, session.ErrInvalidMode
		}
		return fallback, nil
	}
	return session.ParseMode(req.Mode)
}

func sessionStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrInvalidMode):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNoStream),
		errors.Is(err, session.ErrWrongMode),
		errors.Is(err, session.ErrNoImage),
		errors.Is(err, session.ErrSubmitInProgress),
		errors.Is(err, session.ErrStaleSubmission),
		errors.Is(err, session.ErrCaptureEmpty):
		return http.StatusConflict
	case errors.Is(err, session.ErrCameraUnavailable),
		errors.Is(err, session.ErrDecoderInit):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrSubmissionFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeSessionError(w http.ResponseWriter, ctrl SessionController, err error) {
	writeJSON(w, sessionStatus(err), dto.ErrorResponse{
		Error: err.Error(),
		State: ctrl.State(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
