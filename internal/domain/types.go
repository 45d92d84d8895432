package domain

// TransactionType classifies a transaction as money in or money out.
type TransactionType string

const (
	TransactionIncome  TransactionType = "Income"
	TransactionExpense TransactionType = "Expense"
)

// Valid reports whether the type is one of the two permitted values.
func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// Transaction is a confirmed financial event. ID is assigned exactly once, at
// confirmation time; stored transactions are immutable.
type Transaction struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      float64         `json:"amount"`
	Type        TransactionType `json:"type"`
}

// DraftTransaction is a parsed-but-unconfirmed candidate. Same shape as
// Transaction minus identity; at most one exists at a time.
type DraftTransaction struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      float64         `json:"amount"`
	Type        TransactionType `json:"type"`
}

// AppMode models the application lifecycle. Exactly one mode is current.
type AppMode string

const (
	ModeIdle         AppMode = "idle"
	ModeListening    AppMode = "listening"
	ModeProcessing   AppMode = "processing"
	ModeConfirmation AppMode = "confirmation"
	ModeEditing      AppMode = "editing"
	ModeSuccess      AppMode = "success"
	ModeError        AppMode = "error"
)

// ModeReason provides a structured reason for mode transitions.
type ModeReason string

const (
	ReasonStartup              ModeReason = "startup"
	ReasonListeningStarted     ModeReason = "listening_started"
	ReasonListeningStopped     ModeReason = "listening_stopped"
	ReasonTurnEmpty            ModeReason = "turn_empty"
	ReasonTranscribing         ModeReason = "transcribing"
	ReasonPhotoSubmitted       ModeReason = "photo_submitted"
	ReasonParseSucceeded       ModeReason = "parse_succeeded"
	ReasonParseFailed          ModeReason = "parse_failed"
	ReasonCaptureFailed        ModeReason = "capture_failed"
	ReasonConfirmed            ModeReason = "transaction_confirmed"
	ReasonCancelled            ModeReason = "transaction_cancelled"
	ReasonEditStarted          ModeReason = "edit_started"
	ReasonEditSaved            ModeReason = "edit_saved"
	ReasonEditCancelled        ModeReason = "edit_cancelled"
	ReasonTransactionsSaved    ModeReason = "transactions_saved"
	ReasonTransactionsReloaded ModeReason = "transactions_reloaded"
	ReasonViewSwitched         ModeReason = "view_switched"
	ReasonFeedbackExpired      ModeReason = "feedback_expired"
)

// ErrorCode identifies backend errors surfaced to the UI.
type ErrorCode string

const (
	ErrorCodeStartup     ErrorCode = "startup"
	ErrorCodeDevice      ErrorCode = "device_access"
	ErrorCodeAudioStream ErrorCode = "audio_stream"
	ErrorCodeGateway     ErrorCode = "gateway"
	ErrorCodeInvalidType ErrorCode = "invalid_type"
	ErrorCodeStorage     ErrorCode = "storage"
)

// TranscriptEvent is one incremental message from the live transcription
// stream. Text carries a raw transcript fragment to append; TurnComplete marks
// the end of the current utterance and is observed after all preceding
// fragments of that turn.
type TranscriptEvent struct {
	Text         string `json:"text"`
	TurnComplete bool   `json:"turnComplete"`
}

// Status is a snapshot of machine state for the UI.
type Status struct {
	Mode       AppMode           `json:"mode"`
	Transcript string            `json:"transcript"`
	Feedback   string            `json:"feedback,omitempty"`
	Pending    *DraftTransaction `json:"pending,omitempty"`
}
