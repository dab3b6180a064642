package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"Herald/internal/domain"
)

// InsertTask records an agent task and returns it with id and timestamp set.
func (s *PostgresStore) InsertTask(ctx context.Context, task domain.AgentTask) (domain.AgentTask, error) {
	ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return domain.AgentTask{}, err
	}
	defer cancel()

	task.ID = uuid.NewString()
	task.CreatedAt = s.now().UTC()

	query, args, err := psql.
		Insert("agent_tasks").
		Columns("id", "agent_type", "title", "description", "priority", "status", "target_platform",
			"suggested_config", "generated_content", "execution_metadata", "created_at").
		Values(task.ID, string(task.AgentType), task.Title, task.Description, task.Priority, task.Status,
			task.TargetPlatform, jsonOrEmpty(task.SuggestedConfig), task.GeneratedContent,
			jsonOrEmpty(task.ExecutionMetadata), task.CreatedAt).
		ToSql()
	if err != nil {
		return domain.AgentTask{}, fmt.Errorf("build task insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return domain.AgentTask{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

// TaskRecordedSince reports whether a non-failed task matching the prefix exists.
func (s *PostgresStore) TaskRecordedSince(ctx context.Context, agentType domain.AgentType, titlePrefix string, since time.Time) (bool, error) {
	ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return false, err
	}
	defer cancel()

	query, args, err := psql.
		Select("1").
		From("agent_tasks").
		Where(sq.Eq{"agent_type": string(agentType)}).
		Where(sq.NotEq{"status": domain.TaskFailed}).
		Where(sq.Like{"title": titlePrefix + "%"}).
		Where(sq.GtOrEq{"created_at": since}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build task lookup: %w", err)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("lookup task: %w", err)
	}
	return exists, nil
}

func jsonOrEmpty(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte(`{}`)
	}
	return raw
}
