package domain

import (
	"encoding/json"
	"time"
)

// AgentType names a persona the agent executor can run.
type AgentType string

const (
	AgentGriot      AgentType = "griot"
	AgentWeaver     AgentType = "weaver"
	AgentStrategist AgentType = "strategist"
	AgentListener   AgentType = "listener"
	AgentConcierge  AgentType = "concierge"

	// AgentHerald marks tasks recorded by the newsletter jobs.
	AgentHerald AgentType = "herald"
	// AgentResearch marks tasks recorded by intelligence refresh jobs.
	AgentResearch AgentType = "research"
)

// Agent task statuses.
const (
	TaskPendingReview = "pending_review"
	TaskCompleted     = "completed"
	TaskFailed        = "failed"
)

// AgentTask records the output of a job runner or agent for review elsewhere.
type AgentTask struct {
	ID                string          `json:"id"`
	AgentType         AgentType       `json:"agent_type"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Priority          string          `json:"priority"`
	Status            string          `json:"status"`
	TargetPlatform    string          `json:"target_platform"`
	SuggestedConfig   json.RawMessage `json:"suggested_config,omitempty"`
	GeneratedContent  string          `json:"generated_content"`
	ExecutionMetadata json.RawMessage `json:"execution_metadata,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// AgentRequest is the input of one agent execution.
type AgentRequest struct {
	AgentType      AgentType `json:"agent_type"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	TargetPlatform string    `json:"target_platform,omitempty"`
}

// AgentResult is the outcome of one agent execution.
type AgentResult struct {
	AgentType AgentType `json:"agent_type"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	DemoMode  bool      `json:"demo_mode"`
	Persisted bool      `json:"persisted"`
	TaskID    string    `json:"task_id,omitempty"`
}
