package bootstrap

import (
	"time"

	"paisavoice/internal/audio"
	"paisavoice/internal/config"
	"paisavoice/internal/domain"
	"paisavoice/internal/logger"
	"paisavoice/internal/normalize"
	"paisavoice/internal/ports"
	"paisavoice/internal/providers/gemini"
	"paisavoice/internal/store"
	"paisavoice/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Machine *usecase.Machine
	Config  config.Config
}

// Build wires all backend dependencies for the current runtime.
func Build(eventSink ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	log := logger.New()

	normalizer, err := normalize.NewEngine(cfg.Session.RulesFile, 0)
	if err != nil {
		return Services{}, err
	}

	archive := store.NewFileArchive(cfg.Storage.Path, log)
	txStore := store.New()
	txs, err := archive.Load()
	if err != nil {
		return Services{}, err
	}
	if len(txs) == 0 {
		txs = seedTransactions(time.Now())
	}
	txStore.Replace(txs)

	capture := usecase.NewCaptureManager(
		audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand),
		gemini.NewLiveProvider(gemini.LiveConfig{
			APIKey:   cfg.Gemini.APIKey,
			Endpoint: cfg.Gemini.LiveEndpoint,
			Model:    cfg.Gemini.LiveModel,
		}),
		usecase.CaptureConfig{
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			Live: ports.LiveConfig{
				SampleRate: cfg.Audio.SampleRate,
				Channels:   cfg.Audio.Channels,
				MIMEType:   "audio/pcm;rate=16000",
			},
			FrameSize: cfg.Session.FrameSize,
		},
	)

	machine := usecase.NewMachine(
		capture,
		gemini.NewParser(gemini.ParserConfig{
			APIKey: cfg.Gemini.APIKey,
			Model:  cfg.Gemini.ParseModel,
		}),
		normalizer,
		txStore,
		archive,
		eventSink,
		log,
		usecase.MachineConfig{
			SuccessRevert: cfg.Feedback.SuccessRevert,
			ErrorRevert:   cfg.Feedback.ErrorRevert,
			ParseTimeout:  cfg.Session.ParseTimeout,
		},
	)

	return Services{Machine: machine, Config: cfg}, nil
}

// seedTransactions gives a first-run user something to look at.
func seedTransactions(now time.Time) []domain.Transaction {
	return []domain.Transaction{
		{
			ID:          "1",
			Date:        now.AddDate(0, 0, -1).Format("2006-01-02"),
			Description: "Monthly Salary",
			Category:    "Salary",
			Amount:      60000,
			Type:        domain.TransactionIncome,
		},
		{
			ID:          "2",
			Date:        now.AddDate(0, 0, -1).Format("2006-01-02"),
			Description: "Groceries",
			Category:    "Food",
			Amount:      3500,
			Type:        domain.TransactionExpense,
		},
		{
			ID:          "3",
			Date:        now.Format("2006-01-02"),
			Description: "Petrol",
			Category:    "Transport",
			Amount:      1500,
			Type:        domain.TransactionExpense,
		},
	}
}
