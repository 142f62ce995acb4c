// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"strings"
	"time"

	"lubebot/internal/clients/genai"
	stderrors "lubebot/internal/common/errors"
	"lubebot/internal/common/logger"
	"lubebot/internal/common/metrics"
	"lubebot/internal/knowledge"
	"lubebot/internal/models"
	assembleknowledge "lubebot/internal/pipeline/assemble-knowledge"
	composeprompt "lubebot/internal/pipeline/compose-prompt"
	resolveintent "lubebot/internal/pipeline/resolve-intent"
	searchproducts "lubebot/internal/pipeline/search-products"
	validateresponse "lubebot/internal/pipeline/validate-response"
)

// Generator produces the final reply text from a composed prompt.
type Generator interface {
	Configured() bool
	Generate(ctx context.Context, prompt string, history []models.ChatTurn) (string, error)
}

// CatalogProvider yields the current catalog snapshot.
type CatalogProvider interface {
	Snapshot(ctx context.Context) ([]models.CatalogEntry, error)
}

// Pipeline wires the stages into the decision flow: resolve the intent,
// gather only the knowledge that intent needs, search and rank products when
// a recommendation is wanted, compose the prompt, and, in Converse, generate
// and guard the reply.
type Pipeline struct {
	resolve   *resolveintent.Handler
	assemble  *assembleknowledge.Handler
	search    *searchproducts.Handler
	compose   *composeprompt.Handler
	validate  *validateresponse.Handler
	catalog   CatalogProvider
	generator Generator
	logger    logger.Logger
}

type Options struct {
	Classifier resolveintent.Classifier
	Generator  Generator
	Catalog    CatalogProvider
	Knowledge  *knowledge.Store
	Logger     logger.Logger
}

func New(opts Options) *Pipeline {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Pipeline{
		resolve:   resolveintent.NewHandler(resolveintent.LoadConfig(), opts.Classifier, opts.Knowledge, log),
		assemble:  assembleknowledge.NewHandler(assembleknowledge.LoadConfig(), opts.Knowledge, log),
		search:    searchproducts.NewHandler(searchproducts.LoadConfig(), opts.Knowledge, log),
		compose:   composeprompt.NewHandler(composeprompt.LoadConfig(), log),
		validate:  validateresponse.NewHandler(validateresponse.LoadConfig(), log),
		catalog:   opts.Catalog,
		generator: opts.Generator,
		logger:    log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
}

// Answer carries everything the decision layer produced for one message.
type Answer struct {
	Intent             models.Intent            `json:"intent"`
	Knowledge          models.KnowledgeBundle   `json:"knowledge"`
	Products           []models.ScoredCandidate `json:"products"`
	Prompt             string                   `json:"prompt"`
	UsedAIClassifier   bool                     `json:"usedAiClassifier"`
	CatalogUnavailable bool                     `json:"catalogUnavailable"`
	SearchPhase        string                   `json:"searchPhase,omitempty"`

	// catalogSnapshot holds the full catalog used for the guard. A part
	// number is only invalid when it exists nowhere in the catalog, not
	// merely outside the recommended list.
	catalogSnapshot []models.CatalogEntry
}

// Answer runs the pipeline up to the composed prompt. An empty message is the
// only input it refuses; every downstream failure degrades instead.
// A caller holding its own catalog snapshot may pass it as catalogOverride;
// the cache is then bypassed for this call.
func (p *Pipeline) Answer(ctx context.Context, message string, history []models.ChatTurn, catalogOverride ...[]models.CatalogEntry) (*Answer, error) {
	if strings.TrimSpace(message) == "" {
		return nil, stderrors.NewEmptyMessageError()
	}

	start := time.Now()

	resolved, _ := p.resolve.Execute(ctx, &resolveintent.Input{Message: message, History: history})
	intent := resolved.Intent

	assembled, _ := p.assemble.Execute(ctx, &assembleknowledge.Input{Intent: intent})

	answer := &Answer{
		Intent:           intent,
		Knowledge:        assembled.Bundle,
		UsedAIClassifier: resolved.UsedAIClassifier,
	}

	if intent.Type == models.IntentProductRecommendation {
		var entries []models.CatalogEntry
		var err error
		if len(catalogOverride) > 0 && catalogOverride[0] != nil {
			entries = catalogOverride[0]
		} else {
			entries, err = p.catalog.Snapshot(ctx)
		}
		if err != nil {
			p.logger.Error("catalog snapshot unavailable", map[string]interface{}{
				"error": err.Error(),
			})
			metrics.StageErrors.WithLabelValues("catalog", string(stderrors.ErrCodeCatalogUnavailable)).Inc()
			answer.CatalogUnavailable = true
		} else {
			answer.catalogSnapshot = entries
			searched, _ := p.search.Execute(ctx, &searchproducts.Input{
				Catalog: entries,
				Message: message,
				Intent:  intent,
			})
			answer.Products = searched.Candidates
			answer.SearchPhase = searched.Phase
		}
	}

	composed, _ := p.compose.Execute(ctx, &composeprompt.Input{
		Message:            message,
		Intent:             intent,
		Knowledge:          answer.Knowledge,
		Products:           answer.Products,
		CatalogUnavailable: answer.CatalogUnavailable,
	})
	answer.Prompt = composed.Prompt

	metrics.MessagesHandled.WithLabelValues(string(intent.Type)).Inc()
	p.logger.Info("message answered", map[string]interface{}{
		"intentType": string(intent.Type),
		"products":   len(answer.Products),
		"durationMs": time.Since(start).Milliseconds(),
	})

	return answer, nil
}

// Reply is a guarded generation result.
type Reply struct {
	Answer *Answer                 `json:"answer"`
	Text   string                  `json:"text"`
	Guard  models.ValidationResult `json:"guard"`
}

// Converse runs the full loop: Answer, then generation, then the part-number
// guard. The guard only runs on recommendation replies; other intents never
// carry part numbers.
func (p *Pipeline) Converse(ctx context.Context, message string, history []models.ChatTurn) (*Reply, error) {
	answer, err := p.Answer(ctx, message, history)
	if err != nil {
		return nil, err
	}

	if p.generator == nil || !p.generator.Configured() {
		return &Reply{Answer: answer, Text: genai.ApologyText}, nil
	}

	text, err := p.generator.Generate(ctx, answer.Prompt, history)
	if err != nil {
		p.logger.Error("generation failed", map[string]interface{}{"error": err.Error()})
		metrics.StageErrors.WithLabelValues("generate", string(stderrors.ErrCodeGenerationFailed)).Inc()
		return &Reply{Answer: answer, Text: genai.ApologyText}, nil
	}

	reply := &Reply{Answer: answer, Text: text}

	if answer.Intent.Type == models.IntentProductRecommendation && !answer.CatalogUnavailable {
		validated, _ := p.validate.Execute(ctx, &validateresponse.Input{
			Response: text,
			Catalog:  answer.catalogSnapshot,
		})
		reply.Guard = validated.Result
		reply.Text = validated.Result.SanitizedText
	}

	return reply, nil
}
