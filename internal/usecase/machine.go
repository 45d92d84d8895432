package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"paisavoice/internal/domain"
	"paisavoice/internal/ports"
)

// CaptureController is the capture session surface the machine drives.
type CaptureController interface {
	Start(ctx context.Context, observer CaptureObserver) error
	Stop()
	Active() bool
}

// MachineConfig controls feedback timing and gateway parse bounds.
type MachineConfig struct {
	SuccessRevert time.Duration
	ErrorRevert   time.Duration
	ParseTimeout  time.Duration
}

// Machine is the application state machine. It is the sole owner and mutator
// of the current mode, the pending draft slot, the running transcript, and
// the feedback message; collaborators mutate only through its methods.
type Machine struct {
	capture   CaptureController
	parser    ports.TransactionParser
	normalize ports.Normalizer
	store     ports.TransactionStore
	archive   ports.Archive
	events    ports.EventSink
	log       zerolog.Logger
	cfg       MachineConfig

	mu         sync.Mutex
	mode       domain.AppMode
	draft      *domain.DraftTransaction
	transcript string
	feedback   string
	parseCtx   context.Context

	revertGen   int
	revertTimer *time.Timer
}

func NewMachine(
	capture CaptureController,
	parser ports.TransactionParser,
	normalizer ports.Normalizer,
	txStore ports.TransactionStore,
	archive ports.Archive,
	events ports.EventSink,
	log zerolog.Logger,
	cfg MachineConfig,
) *Machine {
	if cfg.SuccessRevert <= 0 {
		cfg.SuccessRevert = 3 * time.Second
	}
	if cfg.ErrorRevert <= 0 {
		cfg.ErrorRevert = 5 * time.Second
	}
	if cfg.ParseTimeout <= 0 {
		cfg.ParseTimeout = 30 * time.Second
	}
	return &Machine{
		capture:   capture,
		parser:    parser,
		normalize: normalizer,
		store:     txStore,
		archive:   archive,
		events:    events,
		log:       log,
		cfg:       cfg,
		mode:      domain.ModeIdle,
		parseCtx:  context.Background(),
	}
}

// StartVoiceCapture begins listening. Allowed from Idle and from the
// self-expiring Success/Error modes, whose revert timers it cancels.
func (m *Machine) StartVoiceCapture(ctx context.Context) error {
	m.mu.Lock()
	switch m.mode {
	case domain.ModeIdle, domain.ModeSuccess, domain.ModeError:
	default:
		mode := m.mode
		m.mu.Unlock()
		return fmt.Errorf("cannot start capture while %s", mode)
	}
	m.cancelRevertLocked()
	m.transcript = ""
	m.feedback = ""
	m.mode = domain.ModeListening
	m.parseCtx = ctx
	m.mu.Unlock()

	m.events.TranscriptUpdated("")
	m.events.ModeChanged(domain.ModeListening, domain.ReasonListeningStarted)

	if err := m.capture.Start(ctx, m); err != nil {
		m.capture.Stop()
		m.failWith(err, domain.ModeListening)
		return err
	}
	return nil
}

// StopVoiceCapture ends listening without a parse. Safe to call at any time.
func (m *Machine) StopVoiceCapture() {
	m.capture.Stop()

	m.mu.Lock()
	if m.mode != domain.ModeListening {
		m.mu.Unlock()
		return
	}
	m.mode = domain.ModeIdle
	m.mu.Unlock()
	m.events.ModeChanged(domain.ModeIdle, domain.ReasonListeningStopped)
}

// SubmitPhoto hands a captured still image to the gateway.
func (m *Machine) SubmitPhoto(ctx context.Context, image []byte, mimeType string) error {
	if len(image) == 0 {
		return errors.New("empty image")
	}

	m.mu.Lock()
	switch m.mode {
	case domain.ModeIdle, domain.ModeSuccess, domain.ModeError:
	default:
		mode := m.mode
		m.mu.Unlock()
		return fmt.Errorf("cannot submit a photo while %s", mode)
	}
	m.cancelRevertLocked()
	m.feedback = ""
	m.mode = domain.ModeProcessing
	m.mu.Unlock()

	m.events.ModeChanged(domain.ModeProcessing, domain.ReasonPhotoSubmitted)

	go func() {
		parseCtx, cancel := context.WithTimeout(ctx, m.cfg.ParseTimeout)
		defer cancel()
		draft, err := m.parser.ParseImage(parseCtx, image, mimeType)
		m.completeParse(draft, err)
	}()
	return nil
}

// TranscriptUpdated implements CaptureObserver.
func (m *Machine) TranscriptUpdated(text string) {
	m.mu.Lock()
	if m.mode != domain.ModeListening {
		m.mu.Unlock()
		return
	}
	m.transcript = text
	m.mu.Unlock()
	m.events.TranscriptUpdated(text)
}

// TurnCompleted implements CaptureObserver. An empty transcript reverts to
// Idle without invoking the gateway.
func (m *Machine) TurnCompleted(transcript string) {
	m.mu.Lock()
	if m.mode != domain.ModeListening {
		m.mu.Unlock()
		return
	}
	if transcript == "" {
		m.mode = domain.ModeIdle
		m.mu.Unlock()
		m.events.ModeChanged(domain.ModeIdle, domain.ReasonTurnEmpty)
		return
	}
	m.transcript = transcript
	m.mode = domain.ModeProcessing
	ctx := m.parseCtx
	m.mu.Unlock()

	m.events.TranscriptUpdated(transcript)
	m.events.ModeChanged(domain.ModeProcessing, domain.ReasonTranscribing)

	go func() {
		parseCtx, cancel := context.WithTimeout(ctx, m.cfg.ParseTimeout)
		defer cancel()

		text, err := m.normalize.Apply(transcript)
		if err != nil {
			m.log.Warn().Err(err).Msg("transcript normalization failed, using raw transcript")
			text = transcript
		}
		draft, err := m.parser.ParseText(parseCtx, text)
		m.completeParse(draft, err)
	}()
}

// CaptureFailed implements CaptureObserver. The session is already torn down
// by the capture manager when this fires.
func (m *Machine) CaptureFailed(err error) {
	m.failWith(err, domain.ModeListening)
}

func (m *Machine) completeParse(draft domain.DraftTransaction, err error) {
	if err == nil && !draft.Type.Valid() {
		err = &domain.InvalidTypeError{Value: string(draft.Type)}
	}
	if err != nil {
		m.failWith(err, domain.ModeProcessing)
		return
	}

	m.mu.Lock()
	if m.mode != domain.ModeProcessing {
		m.mu.Unlock()
		return
	}
	m.draft = &draft
	m.mode = domain.ModeConfirmation
	m.mu.Unlock()

	m.events.DraftPending(draft)
	m.events.ModeChanged(domain.ModeConfirmation, domain.ReasonParseSucceeded)
}

// Confirm turns the pending draft into a stored transaction. Identity is
// assigned here, exactly once; the pending slot is cleared in the same
// transition so a second confirm cannot duplicate the entry.
func (m *Machine) Confirm() error {
	m.mu.Lock()
	if m.mode != domain.ModeConfirmation || m.draft == nil {
		m.mu.Unlock()
		return errors.New("no pending transaction to confirm")
	}
	draft := *m.draft
	m.draft = nil
	m.feedback = "Transaction added successfully!"
	m.mode = domain.ModeSuccess
	m.scheduleRevertLocked(m.cfg.SuccessRevert)
	m.mu.Unlock()

	tx := domain.Transaction{
		ID:          uuid.NewString(),
		Date:        draft.Date,
		Description: draft.Description,
		Category:    draft.Category,
		Amount:      draft.Amount,
		Type:        draft.Type,
	}
	m.store.Prepend(tx)
	m.persist()

	m.events.ModeChanged(domain.ModeSuccess, domain.ReasonConfirmed)
	return nil
}

// Cancel discards the pending draft and returns to Idle. The store is never
// touched.
func (m *Machine) Cancel() error {
	m.mu.Lock()
	if m.mode != domain.ModeConfirmation {
		mode := m.mode
		m.mu.Unlock()
		return fmt.Errorf("nothing to cancel while %s", mode)
	}
	m.draft = nil
	m.transcript = ""
	m.mode = domain.ModeIdle
	m.mu.Unlock()

	m.events.TranscriptUpdated("")
	m.events.ModeChanged(domain.ModeIdle, domain.ReasonCancelled)
	return nil
}

// BeginEdit opens the pending draft for editing.
func (m *Machine) BeginEdit() error {
	m.mu.Lock()
	if m.mode != domain.ModeConfirmation || m.draft == nil {
		m.mu.Unlock()
		return errors.New("no pending transaction to edit")
	}
	m.mode = domain.ModeEditing
	m.mu.Unlock()

	m.events.ModeChanged(domain.ModeEditing, domain.ReasonEditStarted)
	return nil
}

// SaveEdit replaces the pending draft wholesale and returns to Confirmation.
func (m *Machine) SaveEdit(draft domain.DraftTransaction) error {
	if !draft.Type.Valid() {
		return &domain.InvalidTypeError{Value: string(draft.Type)}
	}
	if draft.Amount < 0 {
		return fmt.Errorf("amount must be non-negative, got %v", draft.Amount)
	}

	m.mu.Lock()
	if m.mode != domain.ModeEditing {
		mode := m.mode
		m.mu.Unlock()
		return fmt.Errorf("no edit in progress while %s", mode)
	}
	m.draft = &draft
	m.mode = domain.ModeConfirmation
	m.mu.Unlock()

	m.events.DraftPending(draft)
	m.events.ModeChanged(domain.ModeConfirmation, domain.ReasonEditSaved)
	return nil
}

// CancelEdit abandons the edit; the pending draft keeps its pre-edit values.
func (m *Machine) CancelEdit() error {
	m.mu.Lock()
	if m.mode != domain.ModeEditing {
		mode := m.mode
		m.mu.Unlock()
		return fmt.Errorf("no edit in progress while %s", mode)
	}
	m.mode = domain.ModeConfirmation
	m.mu.Unlock()

	m.events.ModeChanged(domain.ModeConfirmation, domain.ReasonEditCancelled)
	return nil
}

// SwitchView handles a voice/camera view change: an in-flight capture is torn
// down first, then all transient state resets to Idle.
func (m *Machine) SwitchView() {
	m.capture.Stop()

	m.mu.Lock()
	m.cancelRevertLocked()
	m.draft = nil
	m.transcript = ""
	m.feedback = ""
	m.mode = domain.ModeIdle
	m.mu.Unlock()

	m.events.TranscriptUpdated("")
	m.events.ModeChanged(domain.ModeIdle, domain.ReasonViewSwitched)
}

// SaveAll persists the current sequence on explicit user request. Ignored
// while a capture or confirmation flow is in progress.
// Persistence is best-effort: failures are logged, never surfaced as errors.
func (m *Machine) SaveAll() {
	m.mu.Lock()
	switch m.mode {
	case domain.ModeIdle, domain.ModeSuccess, domain.ModeError:
	default:
		mode := m.mode
		m.mu.Unlock()
		m.log.Debug().Str("mode", string(mode)).Msg("save ignored during active flow")
		return
	}
	m.cancelRevertLocked()
	m.feedback = "Transactions saved successfully."
	m.mode = domain.ModeSuccess
	m.scheduleRevertLocked(m.cfg.SuccessRevert)
	m.mu.Unlock()

	m.persist()
	m.events.ModeChanged(domain.ModeSuccess, domain.ReasonTransactionsSaved)
}

// ReloadAll replaces the store with the persisted sequence. Ignored while a
// capture or confirmation flow is in progress. Unreadable state loads as
// empty.
func (m *Machine) ReloadAll() {
	m.mu.Lock()
	switch m.mode {
	case domain.ModeIdle, domain.ModeSuccess, domain.ModeError:
	default:
		mode := m.mode
		m.mu.Unlock()
		m.log.Debug().Str("mode", string(mode)).Msg("reload ignored during active flow")
		return
	}
	m.cancelRevertLocked()
	m.feedback = "Transactions loaded from device storage."
	m.mode = domain.ModeSuccess
	m.scheduleRevertLocked(m.cfg.SuccessRevert)
	m.mu.Unlock()

	txs, err := m.archive.Load()
	if err != nil {
		m.log.Warn().Err(err).Msg("reload failed, starting empty")
		txs = nil
	}
	m.store.Replace(txs)

	m.events.ModeChanged(domain.ModeSuccess, domain.ReasonTransactionsReloaded)
}

// Transactions returns the stored sequence, most recent first.
func (m *Machine) Transactions() []domain.Transaction {
	return m.store.All()
}

// Status returns a snapshot of the machine state.
func (m *Machine) Status() domain.Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := domain.Status{
		Mode:       m.mode,
		Transcript: m.transcript,
		Feedback:   m.feedback,
	}
	if m.draft != nil {
		draft := *m.draft
		status.Pending = &draft
	}
	return status
}

// failWith transitions to Error with a user-readable message and schedules
// the timed auto-revert. The transition only applies when the machine is
// still in the mode the failure originated from, so a stale async failure
// cannot clobber a later state.
func (m *Machine) failWith(err error, from domain.AppMode) {
	code, message := describeError(err)
	reason := domain.ReasonParseFailed
	if code == domain.ErrorCodeDevice || code == domain.ErrorCodeAudioStream {
		reason = domain.ReasonCaptureFailed
	}

	m.mu.Lock()
	if m.mode != from {
		m.mu.Unlock()
		m.log.Debug().Err(err).Str("from", string(from)).Msg("stale failure ignored")
		return
	}
	m.feedback = message
	m.mode = domain.ModeError
	m.scheduleRevertLocked(m.cfg.ErrorRevert)
	m.mu.Unlock()

	m.events.AppError(code, err.Error())
	m.events.ModeChanged(domain.ModeError, reason)
}

func describeError(err error) (domain.ErrorCode, string) {
	var deviceErr *domain.DeviceAccessError
	var invalidType *domain.InvalidTypeError
	var gatewayErr *domain.GatewayError
	var storageErr *domain.StorageError

	switch {
	case errors.As(err, &deviceErr):
		return domain.ErrorCodeDevice, deviceErr.Error()
	case errors.As(err, &invalidType):
		return domain.ErrorCodeInvalidType, "Could not understand the transaction details. Please try again."
	case errors.As(err, &gatewayErr):
		return domain.ErrorCodeGateway, "Could not understand the transaction details. Please try again."
	case errors.As(err, &storageErr):
		return domain.ErrorCodeStorage, "Could not access device storage."
	default:
		return domain.ErrorCodeAudioStream, fmt.Sprintf("Speech recognition error: %v", err)
	}
}

// scheduleRevertLocked arms the self-expiring revert for Success/Error. The
// generation counter invalidates the timer if any other transition happens
// first.
func (m *Machine) scheduleRevertLocked(delay time.Duration) {
	m.cancelRevertLocked()
	m.revertGen++
	gen := m.revertGen
	m.revertTimer = time.AfterFunc(delay, func() {
		m.expireFeedback(gen)
	})
}

func (m *Machine) cancelRevertLocked() {
	m.revertGen++
	if m.revertTimer != nil {
		m.revertTimer.Stop()
		m.revertTimer = nil
	}
}

func (m *Machine) expireFeedback(gen int) {
	m.mu.Lock()
	if gen != m.revertGen || (m.mode != domain.ModeSuccess && m.mode != domain.ModeError) {
		m.mu.Unlock()
		return
	}
	m.mode = domain.ModeIdle
	m.transcript = ""
	m.feedback = ""
	m.mu.Unlock()

	m.events.TranscriptUpdated("")
	m.events.ModeChanged(domain.ModeIdle, domain.ReasonFeedbackExpired)
}

// persist writes the full sequence through to the archive.
func (m *Machine) persist() {
	if err := m.archive.Save(m.store.All()); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist transactions")
	}
}
