package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"

	"paisavoice/internal/domain"
)

const transcriptPrompt = `You are an expert financial assistant for a user in Kerala, India.
The following text is a raw transcript from a Malayalam speech recognizer and
may contain phonetic errors or words from other languages that sound similar.

First, correct the transcript so it reads as natural Malayalam. Then extract
the financial transaction it describes.

- "amount" is the numeric value of the transaction.
- "type" is "Expense" when money was spent and "Income" when money was received.
- "description" is a short English summary of the transaction.
- "category" is a short English category such as Food, Transport, Salary, Shopping, Utilities or Other.
- "date" is in YYYY-MM-DD format; use today's date (%s) unless the transcript names another day.

Return STRICT JSON only. Do not wrap the response in code fences.

Transcript: %s`

const imagePrompt = `You are an expert financial assistant for a user in Kerala, India.
The attached photo shows a receipt, a bill, or a price tag, possibly printed
in Malayalam. Extract the single financial transaction it represents.

- "amount" is the total numeric value.
- "type" is "Expense" when money was spent and "Income" when money was received.
- "description" is a short English summary of the transaction.
- "category" is a short English category such as Food, Transport, Salary, Shopping, Utilities or Other.
- "date" is in YYYY-MM-DD format; use today's date (%s) unless the receipt shows another date.

Return STRICT JSON only. Do not wrap the response in code fences.`

// ParserConfig controls the structured extraction calls.
type ParserConfig struct {
	APIKey string
	Model  string
}

// Parser implements ports.TransactionParser against the Gemini API.
type Parser struct {
	cfg ParserConfig
	now func() time.Time
}

func NewParser(cfg ParserConfig) *Parser {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	return &Parser{cfg: cfg, now: time.Now}
}

func (p *Parser) ParseText(ctx context.Context, transcript string) (domain.DraftTransaction, error) {
	if strings.TrimSpace(transcript) == "" {
		return domain.DraftTransaction{}, &domain.GatewayError{Op: "parse transcript", Err: errors.New("empty transcript")}
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: p.renderPrompt(transcriptPrompt, transcript)},
			},
		},
	}
	return p.generate(ctx, "parse transcript", contents)
}

func (p *Parser) ParseImage(ctx context.Context, image []byte, mimeType string) (domain.DraftTransaction, error) {
	if len(image) == 0 {
		return domain.DraftTransaction{}, &domain.GatewayError{Op: "parse image", Err: errors.New("empty image")}
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: p.renderPrompt(imagePrompt, "")},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     image,
					},
				},
			},
		},
	}
	return p.generate(ctx, "parse image", contents)
}

func (p *Parser) generate(ctx context.Context, op string, contents []*genai.Content) (domain.DraftTransaction, error) {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return domain.DraftTransaction{}, &domain.GatewayError{Op: op, Err: errors.New("GEMINI_API_KEY is not configured")}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return domain.DraftTransaction{}, &domain.GatewayError{Op: op, Err: err}
	}

	resp, err := client.Models.GenerateContent(ctx, p.cfg.Model, contents, draftGenerateConfig())
	if err != nil {
		return domain.DraftTransaction{}, &domain.GatewayError{Op: op, Err: err}
	}

	rawText := resp.Text()
	if rawText == "" {
		return domain.DraftTransaction{}, &domain.GatewayError{Op: op, Err: errors.New("empty response from model")}
	}

	draft, err := decodeDraft(rawText)
	if err != nil {
		var invalidType *domain.InvalidTypeError
		if errors.As(err, &invalidType) {
			return domain.DraftTransaction{}, err
		}
		return domain.DraftTransaction{}, &domain.GatewayError{Op: op, Err: err}
	}
	return draft, nil
}

func (p *Parser) renderPrompt(template, transcript string) string {
	today := p.now().Format("2006-01-02")
	out := strings.Replace(template, "%s", today, 1)
	if transcript != "" {
		out = strings.Replace(out, "%s", transcript, 1)
	}
	return out
}

func draftGenerateConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"date":        {Type: genai.TypeString, Description: "Transaction date in YYYY-MM-DD format"},
				"description": {Type: genai.TypeString, Description: "Short English description of the transaction"},
				"category":    {Type: genai.TypeString, Description: "Short English category name"},
				"amount":      {Type: genai.TypeNumber, Description: "Numeric transaction amount"},
				"type":        {Type: genai.TypeString, Enum: []string{"Income", "Expense"}},
			},
			Required: []string{"date", "description", "category", "amount", "type"},
		},
	}
}

type draftPayload struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
}

// decodeDraft parses a model response into a transaction candidate. Code
// fences are stripped defensively in case the model ignores the strict-JSON
// instruction.
func decodeDraft(raw string) (domain.DraftTransaction, error) {
	clean := cleanModelJSON(raw)

	var payload draftPayload
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return domain.DraftTransaction{}, errors.Join(errors.New("model returned malformed JSON"), err)
	}

	txType := domain.TransactionType(strings.TrimSpace(payload.Type))
	if !txType.Valid() {
		return domain.DraftTransaction{}, &domain.InvalidTypeError{Value: payload.Type}
	}
	if strings.TrimSpace(payload.Description) == "" {
		return domain.DraftTransaction{}, errors.New("model returned an empty description")
	}
	if payload.Amount < 0 {
		return domain.DraftTransaction{}, errors.New("model returned a negative amount")
	}

	return domain.DraftTransaction{
		Date:        strings.TrimSpace(payload.Date),
		Description: strings.TrimSpace(payload.Description),
		Category:    strings.TrimSpace(payload.Category),
		Amount:      payload.Amount,
		Type:        txType,
	}, nil
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
