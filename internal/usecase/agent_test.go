package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Herald/internal/domain"
)

func TestExecuteRejectsUnknownAgent(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{reply: "never used"}
	h := newHarness(t, friday, completer)

	_, err := h.agents.Execute(context.Background(), domain.AgentRequest{AgentType: "oracle", Title: "Anything"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "agent_type", ve.Field)
	assert.Zero(t, completer.calls())
	assert.Empty(t, h.store.Tasks())
}

func TestExecuteRequiresTitle(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, nil)
	_, err := h.agents.Execute(context.Background(), domain.AgentRequest{AgentType: domain.AgentGriot})
	assert.True(t, domain.IsValidation(err))
}

func TestExecuteDemoModeIsNotPersisted(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, nil)
	res, err := h.agents.Execute(context.Background(), domain.AgentRequest{
		AgentType: domain.AgentWeaver,
		Title:     "Winter coat drive",
	})
	require.NoError(t, err)

	assert.True(t, res.DemoMode)
	assert.Contains(t, res.Content, "weaver")
	assert.Contains(t, res.Content, "Winter coat drive")
	assert.False(t, res.Persisted)
	assert.Empty(t, h.store.Tasks())
	assert.Empty(t, h.store.Intelligence())
}

func TestExecutePersistsSubstantialOutput(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("Neighbours helping neighbours. ", 6)
	h := newHarness(t, friday, &fakeCompleter{reply: long})

	res, err := h.agents.Execute(context.Background(), domain.AgentRequest{
		AgentType:      " Strategist ",
		Title:          "Rent strike outreach",
		TargetPlatform: "instagram",
	})
	require.NoError(t, err)

	assert.False(t, res.DemoMode)
	assert.True(t, res.Persisted)
	assert.Equal(t, domain.AgentStrategist, res.AgentType)
	assert.NotEmpty(t, res.TaskID)

	intel := h.store.Intelligence()
	require.Len(t, intel, 1)
	assert.Equal(t, domain.IntelCampaigns, intel[0].IntelligenceType)
	assert.Equal(t, "agent_strategist", intel[0].Service)

	tasks := h.store.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.TaskPendingReview, tasks[0].Status)
	assert.Equal(t, "instagram", tasks[0].TargetPlatform)
}

func TestExecuteShortOutputIsNotPersisted(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, &fakeCompleter{reply: "Short and sweet."})
	res, err := h.agents.Execute(context.Background(), domain.AgentRequest{AgentType: domain.AgentGriot, Title: "Elders"})
	require.NoError(t, err)
	assert.False(t, res.DemoMode)
	assert.False(t, res.Persisted)
	assert.Empty(t, h.store.Intelligence())
}

func TestExecutePersistenceFailureDoesNotFail(t *testing.T) {
	t.Parallel()

	h := newHarness(t, friday, &fakeCompleter{reply: strings.Repeat("x", 150)})
	h.store.FailIntelligence(assert.AnError)

	res, err := h.agents.Execute(context.Background(), domain.AgentRequest{AgentType: domain.AgentConcierge, Title: "Welcome pack"})
	require.NoError(t, err)
	assert.False(t, res.Persisted)
	assert.NotEmpty(t, res.TaskID)
}
