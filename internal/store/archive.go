package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"paisavoice/internal/domain"
)

// FileArchive persists the full transaction sequence as a single JSON
// document on disk. Unreadable or corrupt state loads as "no data" rather
// than an error; the record is rewritten wholesale on every save.
type FileArchive struct {
	path string
	log  zerolog.Logger
}

func NewFileArchive(path string, log zerolog.Logger) *FileArchive {
	return &FileArchive{path: path, log: log}
}

// persistedTransaction covers both the current shape and the legacy bilingual
// shape, which carried the description in two languages.
type persistedTransaction struct {
	ID            string                 `json:"id"`
	Date          string                 `json:"date"`
	Description   string                 `json:"description"`
	DescriptionEn string                 `json:"descriptionEn,omitempty"`
	Category      string                 `json:"category"`
	Amount        float64                `json:"amount"`
	Type          domain.TransactionType `json:"type"`
}

func (a *FileArchive) Save(txs []domain.Transaction) error {
	data, err := json.MarshalIndent(txs, "", "  ")
	if err != nil {
		return &domain.StorageError{Op: "encode", Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(a.path), 0o700); err != nil {
		return &domain.StorageError{Op: "write", Err: err}
	}
	if err := os.WriteFile(a.path, data, 0o600); err != nil {
		return &domain.StorageError{Op: "write", Err: err}
	}
	return nil
}

func (a *FileArchive) Load() ([]domain.Transaction, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			a.log.Warn().Err(err).Str("path", a.path).Msg("archive unreadable, starting empty")
		}
		return nil, nil
	}

	var records []persistedTransaction
	if err := json.Unmarshal(data, &records); err != nil {
		a.log.Warn().Err(err).Str("path", a.path).Msg("archive corrupt, starting empty")
		return nil, nil
	}

	txs := make([]domain.Transaction, 0, len(records))
	for _, rec := range records {
		txs = append(txs, migrate(rec))
	}
	return txs, nil
}

// migrate converts a persisted record to the current single-description
// shape, preferring the English variant when a legacy bilingual record is
// encountered.
func migrate(rec persistedTransaction) domain.Transaction {
	description := rec.Description
	if rec.DescriptionEn != "" {
		description = rec.DescriptionEn
	}
	return domain.Transaction{
		ID:          rec.ID,
		Date:        rec.Date,
		Description: description,
		Category:    rec.Category,
		Amount:      rec.Amount,
		Type:        rec.Type,
	}
}

func (a *FileArchive) String() string {
	return fmt.Sprintf("file archive at %s", a.path)
}
