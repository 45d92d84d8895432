package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"paisavoice/internal/bootstrap"
	"paisavoice/internal/config"
	"paisavoice/internal/domain"
	"paisavoice/internal/usecase"
)

const (
	eventMode       = "paisavoice:mode"
	eventTranscript = "paisavoice:transcript"
	eventDraft      = "paisavoice:draft"
	eventError      = "paisavoice:error"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	machine *usecase.Machine
	cfg     config.Config
	bootErr error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.AppError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.cfg = services.Config
	a.machine = services.Machine
	a.ModeChanged(domain.ModeIdle, domain.ReasonStartup)
}

// StartListening begins a voice capture turn.
func (a *App) StartListening() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.machine.StartVoiceCapture(a.ctx); err != nil {
		return domain.Status{}, err
	}
	return a.machine.Status(), nil
}

// StopListening ends the voice capture turn without waiting for a result.
func (a *App) StopListening() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	a.machine.StopVoiceCapture()
	return a.machine.Status(), nil
}

// SubmitPhoto hands a captured camera frame to the parser. The payload is a
// data URI as produced by a canvas toDataURL call.
func (a *App) SubmitPhoto(dataURI string) (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}

	image, mimeType, err := decodeDataURI(dataURI)
	if err != nil {
		return domain.Status{}, err
	}
	if err := a.machine.SubmitPhoto(a.ctx, image, mimeType); err != nil {
		return domain.Status{}, err
	}
	return a.machine.Status(), nil
}

// ConfirmPending commits the pending transaction.
func (a *App) ConfirmPending() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.machine.Confirm(); err != nil {
		return domain.Status{}, err
	}
	return a.machine.Status(), nil
}

// CancelPending discards the pending transaction.
func (a *App) CancelPending() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.machine.Cancel(); err != nil {
		return domain.Status{}, err
	}
	return a.machine.Status(), nil
}

// BeginEdit opens the pending transaction for editing.
func (a *App) BeginEdit() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.machine.BeginEdit(); err != nil {
		return domain.Status{}, err
	}
	return a.machine.Status(), nil
}

// SaveEdit replaces the pending transaction with the edited values.
func (a *App) SaveEdit(draft domain.DraftTransaction) (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.machine.SaveEdit(draft); err != nil {
		return domain.Status{}, err
	}
	return a.machine.Status(), nil
}

// CancelEdit abandons the edit and keeps the pre-edit values.
func (a *App) CancelEdit() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.machine.CancelEdit(); err != nil {
		return domain.Status{}, err
	}
	return a.machine.Status(), nil
}

// SwitchView resets transient state when the UI moves between the voice and
// camera views.
func (a *App) SwitchView() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	a.machine.SwitchView()
	return a.machine.Status(), nil
}

// SaveTransactions persists the transaction list on explicit user request.
func (a *App) SaveTransactions() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	a.machine.SaveAll()
	return a.machine.Status(), nil
}

// LoadTransactions reloads the transaction list from device storage.
func (a *App) LoadTransactions() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	a.machine.ReloadAll()
	return a.machine.Status(), nil
}

// GetTransactions returns the stored transactions, most recent first.
func (a *App) GetTransactions() ([]domain.Transaction, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.machine.Transactions(), nil
}

// GetStatus returns the current machine status.
func (a *App) GetStatus() domain.Status {
	if a.machine == nil {
		if a.bootErr != nil {
			return domain.Status{Mode: domain.ModeError, Feedback: a.bootErr.Error()}
		}
		return domain.Status{Mode: domain.ModeIdle}
	}
	return a.machine.Status()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	return map[string]string{
		"provider":         "Gemini",
		"parseModel":       a.cfg.Gemini.ParseModel,
		"liveModel":        a.cfg.Gemini.LiveModel,
		"rulesFile":        a.cfg.Session.RulesFile,
		"storagePath":      a.cfg.Storage.Path,
		"audioInput":       a.cfg.Audio.InputDevice,
		"audioInputFormat": a.cfg.Audio.InputFormat,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.machine == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// ModeChanged emits lifecycle updates to the frontend.
func (a *App) ModeChanged(mode domain.AppMode, reason domain.ModeReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventMode, map[string]string{
		"mode":    string(mode),
		"reason":  string(reason),
		"message": modeReasonMessage(reason),
	})
}

// TranscriptUpdated emits the accumulated live transcript.
func (a *App) TranscriptUpdated(text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscript, map[string]string{"text": text})
}

// DraftPending emits the parsed transaction candidate.
func (a *App) DraftPending(draft domain.DraftTransaction) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventDraft, draft)
}

// AppError emits error events to the frontend.
func (a *App) AppError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"detail":  detail,
		"message": errorMessage(code, detail),
	})
}

// decodeDataURI splits a base64 data URI into raw bytes and a MIME type.
func decodeDataURI(dataURI string) ([]byte, string, error) {
	payload := dataURI
	mimeType := "image/jpeg"

	if strings.HasPrefix(dataURI, "data:") {
		header, rest, found := strings.Cut(dataURI[len("data:"):], ",")
		if !found {
			return nil, "", fmt.Errorf("malformed data URI")
		}
		payload = rest
		if mt := strings.TrimSuffix(header, ";base64"); mt != "" {
			mimeType = mt
		}
	}

	image, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image payload: %w", err)
	}
	if len(image) == 0 {
		return nil, "", fmt.Errorf("empty image payload")
	}
	return image, mimeType, nil
}

func modeReasonMessage(reason domain.ModeReason) string {
	switch reason {
	case domain.ReasonStartup:
		return "Ready"
	case domain.ReasonListeningStarted:
		return "Listening..."
	case domain.ReasonListeningStopped:
		return "Listening stopped"
	case domain.ReasonTurnEmpty:
		return "No speech captured"
	case domain.ReasonTranscribing:
		return "Understanding the transaction..."
	case domain.ReasonPhotoSubmitted:
		return "Reading the photo..."
	case domain.ReasonParseSucceeded:
		return "Please confirm the transaction"
	case domain.ReasonParseFailed:
		return "Could not understand the transaction"
	case domain.ReasonCaptureFailed:
		return "Voice capture failed"
	case domain.ReasonConfirmed:
		return "Transaction added successfully!"
	case domain.ReasonCancelled:
		return "Transaction discarded"
	case domain.ReasonEditStarted:
		return "Editing the transaction"
	case domain.ReasonEditSaved:
		return "Edit saved. Please confirm"
	case domain.ReasonEditCancelled:
		return "Edit discarded"
	case domain.ReasonTransactionsSaved:
		return "Transactions saved successfully."
	case domain.ReasonTransactionsReloaded:
		return "Transactions loaded from device storage."
	case domain.ReasonViewSwitched:
		return "View changed"
	case domain.ReasonFeedbackExpired:
		return "Ready"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeDevice:
		return "Microphone access problem"
	case domain.ErrorCodeAudioStream:
		return "Audio streaming issue"
	case domain.ErrorCodeGateway:
		return "Could not understand the transaction"
	case domain.ErrorCodeInvalidType:
		return "Could not understand the transaction"
	case domain.ErrorCodeStorage:
		return "Device storage problem"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
