package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// eventRepo implements EventRepo with raw SQL and the global sequence counter.
type eventRepo struct {
	store *Store
}

func (r *eventRepo) stamp(ctx context.Context) (id string, seq int64, ts time.Time, err error) {
	seq, err = r.store.seq.Next(ctx)
	if err != nil {
		return "", 0, time.Time{}, fmt.Errorf("next sequence: %w", err)
	}
	ts = time.Now()
	return r.store.newID(ts), seq, ts, nil
}

func (r *eventRepo) AppendAnswerEvent(ctx context.Context, data AnswerEventData) error {
	id, seq, ts, err := r.stamp(ctx)
	if err != nil {
		return err
	}
	_, err = r.store.db.ExecContext(ctx, `INSERT INTO answer_events (
		id, sequence, timestamp, session_id, question_id, template_id, subject, skill_area,
		concept, mode, difficulty, question_text, correct_answer, learner_answer, correct, response_time_ms
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, seq, formatTime(ts), data.SessionID, data.QuestionID, data.TemplateID, data.Subject, data.SkillArea,
		data.Concept, data.Mode, data.Difficulty, data.QuestionText, data.CorrectAnswer, data.LearnerAnswer,
		data.Correct, data.ResponseTimeMs,
	)
	if err != nil {
		return fmt.Errorf("save answer event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	id, seq, ts, err := r.stamp(ctx)
	if err != nil {
		return err
	}
	_, err = r.store.db.ExecContext(ctx, `INSERT INTO session_events (
		id, sequence, timestamp, session_id, action, questions_served, correct_answers,
		duration_secs, correct_ratio, difficulty_level
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, seq, formatTime(ts), data.SessionID, data.Action, data.QuestionsServed, data.CorrectAnswers,
		data.DurationSecs, data.CorrectRatio, data.DifficultyLevel,
	)
	if err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	id, seq, ts, err := r.stamp(ctx)
	if err != nil {
		return err
	}
	_, err = r.store.db.ExecContext(ctx, `INSERT INTO llm_request_events (
		id, sequence, timestamp, provider, model, purpose, input_tokens, output_tokens,
		latency_ms, success, error_message, request_body, response_body
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, seq, formatTime(ts), data.Provider, data.Model, data.Purpose, data.InputTokens, data.OutputTokens,
		data.LatencyMs, data.Success, data.ErrorMessage, data.RequestBody, data.ResponseBody,
	)
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

// where builds the sequence/timestamp filter shared by the event queries.
func (opts QueryOpts) where(clauses []string, args []any) (string, []any) {
	if opts.After > 0 {
		clauses = append(clauses, "sequence > ?")
		args = append(args, opts.After)
	}
	if opts.Before > 0 {
		clauses = append(clauses, "sequence < ?")
		args = append(args, opts.Before)
	}
	if !opts.From.IsZero() {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, formatTime(opts.From))
	}
	if !opts.To.IsZero() {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, formatTime(opts.To))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (opts QueryOpts) limit() string {
	if opts.Limit > 0 {
		return fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	return ""
}

func (r *eventRepo) QueryAnswerEvents(ctx context.Context, sessionID string, opts QueryOpts) ([]AnswerEvent, error) {
	where, args := opts.where([]string{"session_id = ?"}, []any{sessionID})
	rows, err := r.store.db.QueryContext(ctx, `SELECT
		id, sequence, timestamp, session_id, question_id, template_id, subject, skill_area,
		concept, mode, difficulty, question_text, correct_answer, learner_answer, correct, response_time_ms
		FROM answer_events`+where+` ORDER BY sequence ASC`+opts.limit(), args...)
	if err != nil {
		return nil, fmt.Errorf("query answer events: %w", err)
	}
	defer rows.Close()

	var out []AnswerEvent
	for rows.Next() {
		var (
			e  AnswerEvent
			ts string
		)
		if err := rows.Scan(&e.ID, &e.Sequence, &ts, &e.SessionID, &e.QuestionID, &e.TemplateID,
			&e.Subject, &e.SkillArea, &e.Concept, &e.Mode, &e.Difficulty, &e.QuestionText,
			&e.CorrectAnswer, &e.LearnerAnswer, &e.Correct, &e.ResponseTimeMs); err != nil {
			return nil, fmt.Errorf("scan answer event: %w", err)
		}
		e.Timestamp = parseTime(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) QuerySessionEvents(ctx context.Context, sessionID string) ([]SessionEvent, error) {
	rows, err := r.store.db.QueryContext(ctx, `SELECT
		id, sequence, timestamp, session_id, action, questions_served, correct_answers,
		duration_secs, correct_ratio, difficulty_level
		FROM session_events WHERE session_id = ? ORDER BY sequence ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	defer rows.Close()

	var out []SessionEvent
	for rows.Next() {
		var (
			e  SessionEvent
			ts string
		)
		if err := rows.Scan(&e.ID, &e.Sequence, &ts, &e.SessionID, &e.Action, &e.QuestionsServed,
			&e.CorrectAnswers, &e.DurationSecs, &e.CorrectRatio, &e.DifficultyLevel); err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		e.Timestamp = parseTime(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

const llmColumns = `id, sequence, timestamp, provider, model, purpose, input_tokens, output_tokens,
	latency_ms, success, error_message, request_body, response_body`

func scanLLMEvent(scan func(dest ...any) error) (LLMRequestEvent, error) {
	var (
		e  LLMRequestEvent
		ts string
	)
	err := scan(&e.ID, &e.Sequence, &ts, &e.Provider, &e.Model, &e.Purpose, &e.InputTokens,
		&e.OutputTokens, &e.LatencyMs, &e.Success, &e.ErrorMessage, &e.RequestBody, &e.ResponseBody)
	e.Timestamp = parseTime(ts)
	return e, err
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	where, args := opts.where(nil, nil)
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT `+llmColumns+` FROM llm_request_events`+where+` ORDER BY sequence DESC`+opts.limit(), args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMRequestEvent
	for rows.Next() {
		e, err := scanLLMEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id string) (*LLMRequestEvent, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+llmColumns+` FROM llm_request_events WHERE id = ?`, id)
	e, err := scanLLMEvent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM event: %w", err)
	}
	return &e, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error) {
	return r.llmUsage(ctx, "purpose")
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMUsageStats, error) {
	return r.llmUsage(ctx, "model")
}

// llmUsage groups by column, which is one of the two fixed names above.
func (r *eventRepo) llmUsage(ctx context.Context, column string) ([]LLMUsageStats, error) {
	rows, err := r.store.db.QueryContext(ctx, `SELECT `+column+`, COUNT(*),
		SUM(CASE WHEN success THEN 0 ELSE 1 END),
		COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0),
		CAST(COALESCE(AVG(latency_ms), 0) AS INTEGER)
		FROM llm_request_events GROUP BY `+column+` ORDER BY COUNT(*) DESC, `+column)
	if err != nil {
		return nil, fmt.Errorf("query LLM usage by %s: %w", column, err)
	}
	defer rows.Close()

	var out []LLMUsageStats
	for rows.Next() {
		var st LLMUsageStats
		if err := rows.Scan(&st.Key, &st.Calls, &st.Failures, &st.InputTokens, &st.OutputTokens, &st.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan LLM usage: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *eventRepo) SessionAccuracy(ctx context.Context, sessionID string) (float64, int, error) {
	var total, correct sql.NullInt64
	err := r.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*), SUM(correct) FROM answer_events WHERE session_id = ?`, sessionID,
	).Scan(&total, &correct)
	if err != nil {
		return 0, 0, fmt.Errorf("query session accuracy: %w", err)
	}
	if total.Int64 == 0 {
		return 0, 0, nil
	}
	return float64(correct.Int64) / float64(total.Int64), int(total.Int64), nil
}
