package persona

import (
	"fmt"
	"strings"

	"Herald/internal/domain"
)

type promptFunc func(req domain.AgentRequest, intel domain.IntelligenceContext) string

type templatePersona struct {
	agentType domain.AgentType
	build     promptFunc
}

func (p templatePersona) Type() domain.AgentType { return p.agentType }

func (p templatePersona) Prompt(req domain.AgentRequest, intel domain.IntelligenceContext) string {
	return p.build(req, intel)
}

var builtin = []Persona{
	templatePersona{domain.AgentGriot, griotPrompt},
	templatePersona{domain.AgentWeaver, weaverPrompt},
	templatePersona{domain.AgentStrategist, strategistPrompt},
	templatePersona{domain.AgentListener, listenerPrompt},
	templatePersona{domain.AgentConcierge, conciergePrompt},
}

// Griot tells the community's story.
func griotPrompt(req domain.AgentRequest, intel domain.IntelligenceContext) string {
	var b strings.Builder
	b.WriteString("You are the Griot, the storyteller of a grassroots community network. ")
	b.WriteString("You turn what is happening in the community into warm, vivid narrative that honours people and history.\n\n")
	writeTask(&b, req)
	b.WriteString("Community context:\n")
	fmt.Fprintf(&b, "- Community members: %d\n", intel.CommunitySize)
	if intel.TopArticle != nil {
		fmt.Fprintf(&b, "- Story people are reading most: %s\n", intel.TopArticle.Title)
	}
	writeInsights(&b, intel.KeyInsights, 3)
	b.WriteString("\nGuidance: write in a storytelling voice, centre real people and collective wins, avoid jargon, ")
	b.WriteString("and end with a line that invites readers to add their own story.")
	return b.String()
}

// Weaver connects people, groups and events.
func weaverPrompt(req domain.AgentRequest, intel domain.IntelligenceContext) string {
	var b strings.Builder
	b.WriteString("You are the Weaver, who connects members, cooperatives and events into a stronger network.\n\n")
	writeTask(&b, req)
	b.WriteString("Network context:\n")
	fmt.Fprintf(&b, "- Community members: %d\n", intel.CommunitySize)
	fmt.Fprintf(&b, "- Cooperative members: %d\n", intel.CoopMembers)
	fmt.Fprintf(&b, "- Upcoming events: %d\n", intel.UpcomingEventCount)
	if intel.NextEvent != nil {
		fmt.Fprintf(&b, "- Next event: %s\n", describeEvent(intel.NextEvent))
	}
	b.WriteString("\nGuidance: propose concrete introductions and collaborations, name which groups should meet and why, ")
	b.WriteString("and suggest one event where those connections can happen.")
	return b.String()
}

// Strategist plans campaigns from the numbers.
func strategistPrompt(req domain.AgentRequest, intel domain.IntelligenceContext) string {
	var b strings.Builder
	b.WriteString("You are the Strategist, who plans community campaigns grounded in data.\n\n")
	writeTask(&b, req)
	b.WriteString("Current metrics:\n")
	fmt.Fprintf(&b, "- Community members: %d\n", intel.CommunitySize)
	fmt.Fprintf(&b, "- Cooperative members: %d\n", intel.CoopMembers)
	fmt.Fprintf(&b, "- Verified creators: %d\n", intel.VerifiedCreators)
	fmt.Fprintf(&b, "- Upcoming events: %d\n", intel.UpcomingEventCount)
	fmt.Fprintf(&b, "- Articles this week: %d\n", intel.WeeklyArticleCount)
	fmt.Fprintf(&b, "- Active resources: %d\n", intel.TotalResources)
	writeInsights(&b, intel.KeyInsights, 5)
	b.WriteString("\nGuidance: produce a short campaign plan with a goal, three prioritised actions, ")
	b.WriteString("the channel for each, and one measurable indicator of success.")
	return b.String()
}

// Listener surfaces needs and sentiment.
func listenerPrompt(req domain.AgentRequest, intel domain.IntelligenceContext) string {
	var b strings.Builder
	b.WriteString("You are the Listener, who pays close attention to what the community needs and feels.\n\n")
	writeTask(&b, req)
	b.WriteString("What we are hearing:\n")
	fmt.Fprintf(&b, "- Articles published this week: %d\n", intel.WeeklyArticleCount)
	if intel.TopArticle != nil {
		fmt.Fprintf(&b, "- Most engaging story: %s\n", intel.TopArticle.Title)
	}
	writeInsights(&b, intel.KeyInsights, 5)
	b.WriteString("\nGuidance: summarise recurring needs and concerns, flag anything urgent, ")
	b.WriteString("and suggest questions to ask the community next. Be careful and non-judgemental.")
	return b.String()
}

// Concierge welcomes and orients newcomers.
func conciergePrompt(req domain.AgentRequest, intel domain.IntelligenceContext) string {
	var b strings.Builder
	b.WriteString("You are the Concierge, who welcomes newcomers and guides them to the right resources.\n\n")
	writeTask(&b, req)
	b.WriteString("What we can offer:\n")
	fmt.Fprintf(&b, "- Active resources in the directory: %d\n", intel.TotalResources)
	if intel.NextEvent != nil {
		fmt.Fprintf(&b, "- A good first event to attend: %s\n", describeEvent(intel.NextEvent))
	}
	b.WriteString("\nGuidance: write a friendly, practical welcome that explains where to start, ")
	b.WriteString("points to two or three resources, and keeps the tone inclusive and jargon-free.")
	return b.String()
}

func writeTask(b *strings.Builder, req domain.AgentRequest) {
	fmt.Fprintf(b, "Task: %s\n", req.Title)
	if req.Description != "" {
		fmt.Fprintf(b, "Details: %s\n", req.Description)
	}
	if req.TargetPlatform != "" {
		fmt.Fprintf(b, "Target platform: %s (adapt length and format to it)\n", req.TargetPlatform)
	}
	b.WriteString("\n")
}

func writeInsights(b *strings.Builder, insights []string, limit int) {
	if len(insights) == 0 {
		return
	}
	if len(insights) > limit {
		insights = insights[:limit]
	}
	b.WriteString("- Key insights:\n")
	for _, insight := range insights {
		fmt.Fprintf(b, "  * %s\n", insight)
	}
}

func describeEvent(e *domain.EventRef) string {
	desc := e.Title
	if e.Date != nil {
		desc += " on " + e.Date.Format("2 January")
	}
	if e.Location != "" {
		desc += " at " + e.Location
	}
	return desc
}
