package evaluacion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/impulsalab/convoca/internal/app/models"
)

// ScoreInput is everything the model sees about a postulación.
type ScoreInput struct {
	StartupNombre      string
	StartupDescripcion string
	StartupSector      string
	Respuestas         []models.ImpactResponse
}

// Scorer produces the per-criterion breakdown for a postulación.
type Scorer interface {
	Score(ctx context.Context, input ScoreInput) ([]models.CriterionScore, error)
	ModelName() string
}

var _ Scorer = (*GeminiScorer)(nil)

// GeminiScorer asks Gemini for a structured JSON evaluation.
type GeminiScorer struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

func NewGeminiScorer(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiScorer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GeminiScorer{client: client, model: model, logger: logger}, nil
}

func (g *GeminiScorer) ModelName() string {
	return g.model
}

var scoreSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"criterio":      {Type: genai.TypeString},
			"puntaje":       {Type: genai.TypeInteger, Minimum: genai.Ptr(0.0), Maximum: genai.Ptr(20.0)},
			"justificacion": {Type: genai.TypeString},
			"confianza":     {Type: genai.TypeNumber, Minimum: genai.Ptr(0.0), Maximum: genai.Ptr(1.0)},
		},
		Required: []string{"criterio", "puntaje", "justificacion", "confianza"},
	},
}

func (g *GeminiScorer) Score(ctx context.Context, input ScoreInput) ([]models.CriterionScore, error) {
	prompt := buildPrompt(input)

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
		ResponseSchema:   scoreSchema,
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		g.logger.Warn("Gemini call failed", zap.Error(err))
		return nil, fmt.Errorf("generating evaluation: %v: %w", err, models.ErrUpstream)
	}

	text := result.Text()
	var scores []models.CriterionScore
	if err := json.Unmarshal([]byte(text), &scores); err != nil {
		g.logger.Warn("Gemini returned unparseable evaluation", zap.Error(err), zap.String("response", text))
		return nil, fmt.Errorf("parsing evaluation response: %v: %w", err, models.ErrUpstream)
	}
	return scores, nil
}

func buildPrompt(input ScoreInput) string {
	var b strings.Builder
	b.WriteString("Eres evaluador de una incubadora de startups de impacto. ")
	b.WriteString("Califica la siguiente postulación asignando a cada criterio un puntaje de 0 a 20, ")
	b.WriteString("una justificación breve y tu nivel de confianza entre 0 y 1.\n\n")
	fmt.Fprintf(&b, "Startup: %s\nSector: %s\nDescripción: %s\n\n", input.StartupNombre, input.StartupSector, input.StartupDescripcion)
	b.WriteString("Criterios a calificar: " + strings.Join(models.Criterios(), ", ") + "\n\n")
	b.WriteString("Cuestionario de impacto:\n")
	for _, r := range input.Respuestas {
		fmt.Fprintf(&b, "- [%s] %s\n  Respuesta: %s\n", r.Criterio, r.Pregunta, r.Respuesta)
	}
	return b.String()
}
