package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"Herald/internal/config"
	"Herald/internal/domain"
	"Herald/internal/logging"
	"Herald/internal/ports"
)

// Job names accepted by the dispatcher.
const (
	JobCron                  = "cron"
	JobDailyResearch         = "daily-research"
	JobWeeklyHerald          = "weekly-herald"
	JobMonthlyHerald         = "monthly-herald"
	JobAggregateIntelligence = "aggregate-intelligence"
)

const (
	noJobsMessage = "no jobs scheduled"
	previewRunes  = 200
)

// Window is an hour range [StartHour, EndHour) optionally pinned to a weekday
// or a day of the month.
type Window struct {
	Job       string
	StartHour int
	EndHour   int
	Weekday   *time.Weekday
	MonthDay  int
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if t.Hour() < w.StartHour || t.Hour() >= w.EndHour {
		return false
	}
	if w.Weekday != nil && t.Weekday() != *w.Weekday {
		return false
	}
	if w.MonthDay > 0 && t.Day() != w.MonthDay {
		return false
	}
	return true
}

// WindowsFromConfig builds the composite job's windows in evaluation order.
func WindowsFromConfig(cfg config.SchedulerConfig) []Window {
	return []Window{
		windowFrom(JobDailyResearch, cfg.DailyResearch),
		windowFrom(JobWeeklyHerald, cfg.WeeklyHerald),
		windowFrom(JobMonthlyHerald, cfg.MonthlyHerald),
	}
}

func windowFrom(job string, wc config.WindowConfig) Window {
	w := Window{Job: job, StartHour: wc.StartHour, EndHour: wc.EndHour, MonthDay: wc.MonthDay}
	if day, ok := parseWeekday(wc.Weekday); ok {
		w.Weekday = &day
	}
	return w
}

func parseWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, true
		}
	}
	return 0, false
}

// JobResult is the outcome of one job runner.
type JobResult struct {
	Job     string `json:"job"`
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"`
	Preview string `json:"preview,omitempty"`
	TaskID  string `json:"task_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DispatchReport collects the results of one dispatcher invocation.
type DispatchReport struct {
	Job     string      `json:"job"`
	RanAt   time.Time   `json:"ran_at"`
	Results []JobResult `json:"results"`
	Message string      `json:"message,omitempty"`
}

// DispatcherDeps wires the job runners.
type DispatcherDeps struct {
	Aggregator *IntelligenceAggregator
	Agents     *AgentExecutor
	Generator  *Generator
	Tasks      ports.TaskRepository
	Scheduler  config.SchedulerConfig
	Lists      map[string]string
	Now        func() time.Time
	Logger     *slog.Logger
}

// Dispatcher selects and runs scheduled jobs, recording each run as an agent task.
type Dispatcher struct {
	aggregator *IntelligenceAggregator
	agents     *AgentExecutor
	generator  *Generator
	tasks      ports.TaskRepository
	windows    []Window
	location   *time.Location
	allowDup   bool
	lists      map[string]string
	now        func() time.Time
	logger     *slog.Logger
}

// NewDispatcher constructs the dispatcher.
func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Dispatcher{
		aggregator: deps.Aggregator,
		agents:     deps.Agents,
		generator:  deps.Generator,
		tasks:      deps.Tasks,
		windows:    WindowsFromConfig(deps.Scheduler),
		location:   deps.Scheduler.Location(),
		allowDup:   deps.Scheduler.AllowDuplicateRuns,
		lists:      deps.Lists,
		now:        deps.Now,
		logger:     logging.Component(deps.Logger, "dispatcher"),
	}
}

// Dispatch runs job at the current time.
func (d *Dispatcher) Dispatch(ctx context.Context, job string) (DispatchReport, error) {
	return d.DispatchAt(ctx, job, d.now())
}

// DispatchAt runs job as of at. The composite cron job runs every job whose
// window contains at, skipping jobs already recorded for the current period
// unless duplicate runs are allowed. Named jobs always run.
func (d *Dispatcher) DispatchAt(ctx context.Context, job string, at time.Time) (DispatchReport, error) {
	job = strings.ToLower(strings.TrimSpace(job))
	at = at.In(d.location)
	report := DispatchReport{Job: job, RanAt: at, Results: []JobResult{}}

	if job != JobCron {
		spec, ok := d.jobSpec(job)
		if !ok {
			return report, domain.Invalid("job", "unknown job %q", job)
		}
		report.Results = append(report.Results, d.run(ctx, spec, at))
		return report, nil
	}

	for _, w := range d.windows {
		if !w.Contains(at) {
			continue
		}
		spec, _ := d.jobSpec(w.Job)
		if !d.allowDup && d.alreadyRan(ctx, spec, at) {
			d.logger.Info("job already ran this period, skipping", "job", spec.name)
			report.Results = append(report.Results, JobResult{Job: spec.name, Success: true, Skipped: true, Preview: "already ran for this period"})
			continue
		}
		report.Results = append(report.Results, d.run(ctx, spec, at))
	}

	if len(report.Results) == 0 {
		report.Message = noJobsMessage
	}
	return report, nil
}

type jobSpec struct {
	name      string
	agentType domain.AgentType
	prefix    func(at time.Time) string
	period    func(at time.Time) time.Time
	run       func(ctx context.Context, at time.Time, title string) (domain.AgentTask, error)
}

func (d *Dispatcher) jobSpec(job string) (jobSpec, bool) {
	switch job {
	case JobDailyResearch:
		return jobSpec{JobDailyResearch, domain.AgentResearch, dailyResearchPrefix, startOfDay, d.runDailyResearch}, true
	case JobWeeklyHerald:
		return jobSpec{JobWeeklyHerald, domain.AgentHerald, weeklyHeraldPrefix, startOfISOWeek, d.heraldRunner(domain.EditionWeekly)}, true
	case JobMonthlyHerald:
		return jobSpec{JobMonthlyHerald, domain.AgentHerald, monthlyHeraldPrefix, startOfMonth, d.heraldRunner(domain.EditionMonthly)}, true
	case JobAggregateIntelligence:
		return jobSpec{JobAggregateIntelligence, domain.AgentResearch, refreshPrefix, startOfDay, d.runAggregation}, true
	default:
		return jobSpec{}, false
	}
}

func (d *Dispatcher) alreadyRan(ctx context.Context, spec jobSpec, at time.Time) bool {
	if d.tasks == nil {
		return false
	}
	ran, err := d.tasks.TaskRecordedSince(ctx, spec.agentType, spec.prefix(at), spec.period(at))
	if err != nil {
		d.logger.Warn("idempotency check failed, running job", "job", spec.name, "error", err)
		return false
	}
	return ran
}

func (d *Dispatcher) run(ctx context.Context, spec jobSpec, at time.Time) JobResult {
	title := spec.prefix(at)
	result := JobResult{Job: spec.name}

	task, err := spec.run(ctx, at, title)
	if err != nil {
		d.logger.Error("job failed", "job", spec.name, "error", err)
		result.Error = err.Error()
		d.recordFailure(ctx, spec, title, err)
		return result
	}

	task.AgentType = spec.agentType
	if task.Status == "" {
		task.Status = domain.TaskPendingReview
	}
	if task.Priority == "" {
		task.Priority = domain.LevelMedium
	}
	result.Success = true
	result.Preview = truncate(task.GeneratedContent, previewRunes)

	if d.tasks != nil {
		saved, err := d.tasks.InsertTask(ctx, task)
		if err != nil {
			d.logger.Warn("record task failed", "job", spec.name, "error", err)
		} else {
			result.TaskID = saved.ID
		}
	}

	d.logger.Info("job finished", "job", spec.name, "task_id", result.TaskID)
	return result
}

func (d *Dispatcher) recordFailure(ctx context.Context, spec jobSpec, title string, cause error) {
	if d.tasks == nil {
		return
	}
	_, err := d.tasks.InsertTask(ctx, domain.AgentTask{
		AgentType:         spec.agentType,
		Title:             title,
		Description:       "Job " + spec.name + " failed",
		Priority:          domain.LevelHigh,
		Status:            domain.TaskFailed,
		TargetPlatform:    "internal",
		GeneratedContent:  cause.Error(),
		ExecutionMetadata: mustJSON(map[string]any{"job": spec.name, "failed_at": d.now().UTC()}),
	})
	if err != nil {
		d.logger.Warn("record failed task failed", "job", spec.name, "error", err)
	}
}

func (d *Dispatcher) runDailyResearch(ctx context.Context, _ time.Time, title string) (domain.AgentTask, error) {
	agg, err := d.aggregator.Run(ctx)
	if err != nil {
		d.logger.Warn("intelligence refresh failed, briefing on cached data", "error", err)
	}

	brief, err := d.agents.generate(ctx, domain.AgentRequest{
		AgentType:      domain.AgentListener,
		Title:          title,
		Description:    "Summarize what the community is asking for and talking about today, and flag anything that needs attention.",
		TargetPlatform: "internal",
	})
	if err != nil {
		return domain.AgentTask{}, err
	}

	return domain.AgentTask{
		Title:            title,
		Description:      "Daily research brief from the listener persona",
		TargetPlatform:   "internal",
		GeneratedContent: brief.Content,
		SuggestedConfig:  mustJSON(map[string]any{"buckets": agg.Buckets}),
		ExecutionMetadata: mustJSON(map[string]any{
			"records_touched": agg.RecordsTouched,
			"demo_mode":       brief.DemoMode,
			"model":           d.agents.copy.Model(),
		}),
	}, nil
}

func (d *Dispatcher) runAggregation(ctx context.Context, _ time.Time, title string) (domain.AgentTask, error) {
	agg, err := d.aggregator.Run(ctx)
	if err != nil {
		return domain.AgentTask{}, err
	}

	lines := make([]string, 0, len(agg.Buckets))
	for _, b := range agg.Buckets {
		lines = append(lines, fmt.Sprintf("%s (%s): %s", b.Type, b.Priority, b.Summary))
	}
	return domain.AgentTask{
		Title:             title,
		Description:       "Intelligence cache refreshed",
		Priority:          domain.LevelLow,
		Status:            domain.TaskCompleted,
		TargetPlatform:    "internal",
		GeneratedContent:  strings.Join(lines, "\n"),
		ExecutionMetadata: mustJSON(map[string]any{"records_touched": agg.RecordsTouched}),
	}, nil
}

func (d *Dispatcher) heraldRunner(editionType domain.EditionType) func(context.Context, time.Time, string) (domain.AgentTask, error) {
	return func(ctx context.Context, _ time.Time, title string) (domain.AgentTask, error) {
		res, err := d.generator.Generate(ctx, GenerateRequest{EditionType: editionType})
		if err != nil {
			return domain.AgentTask{}, err
		}
		edition := res.Edition
		listID := d.lists[string(editionType)]

		content := edition.SubjectLine
		if edition.PreviewText != "" {
			content += "\n\n" + edition.PreviewText
		}
		return domain.AgentTask{
			Title:            title + ": " + edition.Title,
			Description:      fmt.Sprintf("Edition #%d is ready for editorial review and list handoff", edition.EditionNumber),
			Priority:         domain.LevelHigh,
			TargetPlatform:   "sendfox",
			GeneratedContent: content,
			SuggestedConfig:  mustJSON(map[string]any{"edition_id": edition.ID, "list_id": listID}),
			ExecutionMetadata: mustJSON(map[string]any{
				"edition_number": edition.EditionNumber,
				"model":          edition.GenerationModel,
				"counts":         res.Counts,
			}),
		}, nil
	}
}

func dailyResearchPrefix(at time.Time) string {
	return "Daily research brief " + at.Format("2006-01-02")
}

func refreshPrefix(at time.Time) string {
	return "Intelligence refresh " + at.Format("2006-01-02")
}

func weeklyHeraldPrefix(at time.Time) string {
	year, week := at.ISOWeek()
	return fmt.Sprintf("Weekly Herald %04d-W%02d", year, week)
}

func monthlyHeraldPrefix(at time.Time) string {
	return "Monthly Herald " + at.Format("2006-01")
}

func startOfISOWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return startOfDay(t).AddDate(0, 0, -offset)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
