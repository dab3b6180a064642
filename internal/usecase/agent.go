package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"Herald/internal/domain"
	"Herald/internal/logging"
	"Herald/internal/persona"
	"Herald/internal/ports"
)

// persistThreshold is the content length above which agent output is kept.
const persistThreshold = 100

// AgentExecutorDeps wires the agent executor.
type AgentExecutorDeps struct {
	Personas    *persona.Registry
	Synthesizer *IntelligenceSynthesizer
	Copy        *CopyGenerator
	Intel       ports.IntelligenceRepository
	Tasks       ports.TaskRepository
	Now         func() time.Time
	Logger      *slog.Logger
}

// AgentExecutor runs persona prompts against the current intelligence context.
type AgentExecutor struct {
	personas *persona.Registry
	synth    *IntelligenceSynthesizer
	copy     *CopyGenerator
	intel    ports.IntelligenceRepository
	tasks    ports.TaskRepository
	now      func() time.Time
	logger   *slog.Logger
}

// NewAgentExecutor constructs the executor.
func NewAgentExecutor(deps AgentExecutorDeps) *AgentExecutor {
	if deps.Personas == nil {
		deps.Personas = persona.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &AgentExecutor{
		personas: deps.Personas,
		synth:    deps.Synthesizer,
		copy:     deps.Copy,
		intel:    deps.Intel,
		tasks:    deps.Tasks,
		now:      deps.Now,
		logger:   logging.Component(deps.Logger, "agents"),
	}
}

// Execute validates the request, generates the persona's content and, when
// the output is substantial, keeps it as a campaigns intelligence record and
// a task for review. Persistence is best effort.
func (e *AgentExecutor) Execute(ctx context.Context, req domain.AgentRequest) (domain.AgentResult, error) {
	result, err := e.generate(ctx, req)
	if err != nil {
		return result, err
	}
	if result.DemoMode || len(result.Content) <= persistThreshold {
		return result, nil
	}

	result.Persisted = e.persistIntelligence(ctx, req, result.Content)
	if e.tasks != nil {
		task, err := e.tasks.InsertTask(ctx, domain.AgentTask{
			AgentType:         req.AgentType,
			Title:             req.Title,
			Description:       req.Description,
			Priority:          domain.LevelMedium,
			Status:            domain.TaskPendingReview,
			TargetPlatform:    req.TargetPlatform,
			GeneratedContent:  result.Content,
			ExecutionMetadata: mustJSON(map[string]any{"model": e.copy.Model(), "executed_at": e.now().UTC()}),
		})
		if err != nil {
			e.logger.Warn("record agent task failed", "agent_type", req.AgentType, "error", err)
		} else {
			result.TaskID = task.ID
		}
	}
	return result, nil
}

// generate resolves the persona and produces content without persisting it.
func (e *AgentExecutor) generate(ctx context.Context, req domain.AgentRequest) (domain.AgentResult, error) {
	req.AgentType = domain.AgentType(strings.ToLower(strings.TrimSpace(string(req.AgentType))))
	p, err := e.personas.Resolve(req.AgentType)
	if err != nil {
		return domain.AgentResult{}, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return domain.AgentResult{}, domain.Invalid("title", "is required")
	}

	intel := e.synth.Context(ctx)
	content, usedAI := e.copy.Generate(ctx, p.Prompt(req, intel), agentOptions, demoPlaceholder(req))

	e.logger.Info("agent executed", "agent_type", req.AgentType, "ai", usedAI, "chars", len(content))
	return domain.AgentResult{
		AgentType: req.AgentType,
		Title:     req.Title,
		Content:   content,
		DemoMode:  !usedAI,
	}, nil
}

func (e *AgentExecutor) persistIntelligence(ctx context.Context, req domain.AgentRequest, content string) bool {
	if e.intel == nil {
		return false
	}
	now := e.now()
	rec := domain.IntelligenceRecord{
		IntelligenceType: domain.IntelCampaigns,
		Service:          "agent_" + string(req.AgentType),
		Data: mustJSON(map[string]any{
			"agent_type":      req.AgentType,
			"title":           req.Title,
			"description":     req.Description,
			"target_platform": req.TargetPlatform,
			"content":         content,
		}),
		Summary:         truncate(req.Title+": "+content, 200),
		KeyInsights:     []string{},
		ActionableItems: []string{"Review generated content for " + req.Title},
		RelevanceScore:  relevanceFor(domain.LevelMedium),
		Priority:        domain.LevelMedium,
		Urgency:         domain.LevelLow,
		Tags:            []string{"campaigns", string(req.AgentType)},
		DataTimestamp:   now,
		ExpiresAt:       now.Add(domain.IntelligenceTTL),
	}
	if err := e.intel.UpsertIntelligence(ctx, rec); err != nil {
		e.logger.Warn("persist agent output failed", "agent_type", req.AgentType, "error", err)
		return false
	}
	return true
}

func demoPlaceholder(req domain.AgentRequest) string {
	desc := req.Description
	if desc == "" {
		desc = "no additional details"
	}
	platform := req.TargetPlatform
	if platform == "" {
		platform = "any platform"
	}
	return fmt.Sprintf("[Demo mode] The %s agent would generate content for %q (%s), tailored for %s, using the latest community intelligence. Configure a completion API key to enable generation.",
		req.AgentType, req.Title, desc, platform)
}

func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return raw
}
