package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mock-interview/internal/candidate"
	"github.com/gokatarajesh/mock-interview/internal/question"
)

const defaultListLimit = 100

// dbtx is the subset of pgxpool.Pool the repository needs.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CandidateRepository is the Postgres candidate.Store. The active candidate
// id lives behind an ActivePointer; without one it is kept in the
// session_state row.
type CandidateRepository struct {
	db     dbtx
	active candidate.ActivePointer
	logger zerolog.Logger
}

var _ candidate.Store = (*CandidateRepository)(nil)

// NewCandidateRepository wraps a pool. active may be nil.
func NewCandidateRepository(db dbtx, active candidate.ActivePointer, logger zerolog.Logger) *CandidateRepository {
	r := &CandidateRepository{
		db:     db,
		active: active,
		logger: logger.With().Str("component", "candidate_repo").Logger(),
	}
	if r.active == nil {
		r.active = &pgActivePointer{db: db}
	}
	return r
}

func (r *CandidateRepository) CreateCandidate(ctx context.Context, in candidate.NewCandidate) (*candidate.Candidate, error) {
	c := &candidate.Candidate{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		ResumeText: in.ResumeText,
		Status:     candidate.StatusIncomplete,
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO candidates (id, name, email, phone, resume_text, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		uuid.MustParse(c.ID), c.Name, c.Email, c.Phone, c.ResumeText, string(c.Status),
	).Scan(&c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert candidate: %w", err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}

func (r *CandidateRepository) UpdateCandidateFields(ctx context.Context, id string, updates ...candidate.FieldUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	pk, err := parseID(id)
	if err != nil {
		return err
	}

	// Column names come from the validated field constants only.
	sets := make([]string, 0, len(updates))
	args := []any{pk}
	for _, u := range updates {
		if !candidate.ValidField(u.Field) {
			return fmt.Errorf("%w: %q", candidate.ErrUnknownField, u.Field)
		}
		args = append(args, u.Value)
		sets = append(sets, fmt.Sprintf("%s = $%d", u.Field, len(args)))
	}
	tag, err := r.db.Exec(ctx, `UPDATE candidates SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	return expectRow(tag, err, "update candidate fields")
}

func (r *CandidateRepository) RecordQuestionSet(ctx context.Context, id string, questions []question.Question, startedAt time.Time) error {
	pk, err := parseID(id)
	if err != nil {
		return err
	}
	if questions == nil {
		questions = []question.Question{}
	}
	payload, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE candidates
			SET questions = $2, current_question_index = 0, total_score = 0, final_score = NULL,
			    summary = '', completed_at = NULL, started_at = $3, status = $4
			WHERE id = $1`,
			pk, payload, startedAt.UTC(), string(candidate.StatusIncomplete))
		if err := expectRow(tag, err, "record question set"); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM candidate_answers WHERE candidate_id = $1`, pk); err != nil {
			return fmt.Errorf("clear answers: %w", err)
		}
		return nil
	})
}

// RecordAnswer locks the candidate row so concurrent appends for the same
// position can't both succeed.
func (r *CandidateRepository) RecordAnswer(ctx context.Context, id string, index int, answer candidate.Answer, totalScore int) error {
	pk, err := parseID(id)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var count int
		err := tx.QueryRow(ctx, `
			SELECT (SELECT COUNT(*) FROM candidate_answers WHERE candidate_id = c.id)
			FROM candidates c WHERE c.id = $1 FOR UPDATE`, pk).Scan(&count)
		if errors.Is(err, pgx.ErrNoRows) {
			return candidate.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock candidate: %w", err)
		}
		if index != count {
			return candidate.ErrAnswerOutOfOrder
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO candidate_answers
			    (candidate_id, position, question_id, question_text, answer_text, difficulty, score, time_spent_seconds, feedback)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			pk, index, answer.QuestionID, answer.QuestionText, answer.AnswerText, answer.Difficulty,
			answer.Score, answer.TimeSpentSeconds, answer.Feedback); err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE candidates SET total_score = $2, current_question_index = $3 WHERE id = $1`,
			pk, totalScore, index+1); err != nil {
			return fmt.Errorf("update totals: %w", err)
		}
		return nil
	})
}

func (r *CandidateRepository) SetStatus(ctx context.Context, id string, status candidate.Status, at time.Time) error {
	pk, err := parseID(id)
	if err != nil {
		return err
	}
	var completedAt *time.Time
	if status == candidate.StatusCompleted {
		t := at.UTC()
		completedAt = &t
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE candidates SET status = $2, completed_at = COALESCE($3, completed_at) WHERE id = $1`,
		pk, string(status), completedAt)
	return expectRow(tag, err, "set status")
}

func (r *CandidateRepository) SetSummary(ctx context.Context, id string, summary string, finalScore int) error {
	pk, err := parseID(id)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE candidates SET summary = $2, final_score = $3 WHERE id = $1`, pk, summary, finalScore)
	return expectRow(tag, err, "set summary")
}

func (r *CandidateRepository) AppendChatTurn(ctx context.Context, id string, turn candidate.ChatTurn) error {
	pk, err := parseID(id)
	if err != nil {
		return err
	}
	at := turn.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO chat_turns (candidate_id, origin, text, created_at) VALUES ($1, $2, $3, $4)`,
		pk, string(turn.Origin), turn.Text, at.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return candidate.ErrNotFound
		}
		return fmt.Errorf("append chat turn: %w", err)
	}
	return nil
}

func (r *CandidateRepository) SetActiveCandidate(ctx context.Context, id string) error {
	pk, err := parseID(id)
	if err != nil {
		return err
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM candidates WHERE id = $1)`, pk).Scan(&exists); err != nil {
		return fmt.Errorf("check candidate: %w", err)
	}
	if !exists {
		return candidate.ErrNotFound
	}
	return r.active.Set(ctx, id)
}

func (r *CandidateRepository) GetCandidate(ctx context.Context, id string) (*candidate.Candidate, error) {
	pk, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var (
		c         candidate.Candidate
		status    string
		questions []byte
	)
	err = r.db.QueryRow(ctx, `
		SELECT id::text, name, email, phone, resume_text, questions, current_question_index, total_score,
		       final_score, status, summary, started_at, completed_at, created_at
		FROM candidates WHERE id = $1`, pk).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.ResumeText, &questions, &c.CurrentQuestionIndex, &c.TotalScore,
		&c.FinalScore, &status, &c.Summary, &c.StartedAt, &c.CompletedAt, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, candidate.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select candidate: %w", err)
	}
	c.Status = candidate.Status(status)
	if err := json.Unmarshal(questions, &c.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}

	if c.Answers, err = r.answers(ctx, pk); err != nil {
		return nil, err
	}
	if c.Chat, err = r.chat(ctx, pk); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CandidateRepository) GetActiveCandidate(ctx context.Context) (*candidate.Candidate, error) {
	id, err := r.active.Get(ctx)
	if err != nil {
		return nil, err
	}
	c, err := r.GetCandidate(ctx, id)
	if errors.Is(err, candidate.ErrNotFound) {
		r.logger.Warn().Str("candidate_id", id).Msg("active pointer references a missing candidate")
		return nil, candidate.ErrNoActiveCandidate
	}
	return c, err
}

func (r *CandidateRepository) ListCandidates(ctx context.Context, opts candidate.ListOptions) ([]candidate.Summary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := r.db.Query(ctx, `
		SELECT id::text, name, email, status, final_score, summary, completed_at, created_at
		FROM candidates
		WHERE $1 = '' OR name ILIKE $2 OR email ILIKE $2 OR summary ILIKE $2
		ORDER BY `+orderClause(opts.SortBy)+`
		LIMIT $3`,
		strings.TrimSpace(opts.Query), likePattern(opts.Query), limit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	out := make([]candidate.Summary, 0)
	for rows.Next() {
		var (
			s      candidate.Summary
			status string
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &status, &s.FinalScore, &s.Summary, &s.CompletedAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan candidate row: %w", err)
		}
		s.Status = candidate.Status(status)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *CandidateRepository) answers(ctx context.Context, pk uuid.UUID) ([]candidate.Answer, error) {
	rows, err := r.db.Query(ctx, `
		SELECT question_id, question_text, answer_text, difficulty, score, time_spent_seconds, feedback
		FROM candidate_answers WHERE candidate_id = $1 ORDER BY position`, pk)
	if err != nil {
		return nil, fmt.Errorf("select answers: %w", err)
	}
	defer rows.Close()

	var out []candidate.Answer
	for rows.Next() {
		var a candidate.Answer
		if err := rows.Scan(&a.QuestionID, &a.QuestionText, &a.AnswerText, &a.Difficulty, &a.Score, &a.TimeSpentSeconds, &a.Feedback); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *CandidateRepository) chat(ctx context.Context, pk uuid.UUID) ([]candidate.ChatTurn, error) {
	rows, err := r.db.Query(ctx, `
		SELECT origin, text, created_at FROM chat_turns WHERE candidate_id = $1 ORDER BY id`, pk)
	if err != nil {
		return nil, fmt.Errorf("select chat: %w", err)
	}
	defer rows.Close()

	var out []candidate.ChatTurn
	for rows.Next() {
		var (
			t      candidate.ChatTurn
			origin string
		)
		if err := rows.Scan(&origin, &t.Text, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan chat turn: %w", err)
		}
		t.Origin = candidate.Origin(origin)
		t.Timestamp = t.Timestamp.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

// orderClause maps a dashboard sort to SQL. Unknown values sort by date.
func orderClause(by string) string {
	switch by {
	case candidate.SortByScore:
		return "final_score DESC NULLS LAST, created_at DESC"
	case candidate.SortByName:
		return "LOWER(name) ASC, created_at DESC"
	default:
		return "created_at DESC"
	}
}

// likePattern builds a contains-pattern with LIKE metacharacters escaped.
func likePattern(query string) string {
	q := strings.TrimSpace(query)
	q = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q)
	return "%" + q + "%"
}

// parseID rejects malformed ids up front; no row can match them.
func parseID(id string) (uuid.UUID, error) {
	pk, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, candidate.ErrNotFound
	}
	return pk, nil
}

func expectRow(tag pgconn.CommandTag, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return candidate.ErrNotFound
	}
	return nil
}

// pgActivePointer stores the active id in the session_state row.
type pgActivePointer struct {
	db dbtx
}

func (p *pgActivePointer) Set(ctx context.Context, id string) error {
	pk, err := parseID(id)
	if err != nil {
		return err
	}
	_, err = p.db.Exec(ctx, `
		INSERT INTO session_state (singleton, candidate_id, updated_at) VALUES (TRUE, $1, NOW())
		ON CONFLICT (singleton) DO UPDATE SET candidate_id = EXCLUDED.candidate_id, updated_at = NOW()`, pk)
	if err != nil {
		return fmt.Errorf("set active candidate: %w", err)
	}
	return nil
}

func (p *pgActivePointer) Get(ctx context.Context) (string, error) {
	var id *string
	err := p.db.QueryRow(ctx, `SELECT candidate_id::text FROM session_state WHERE singleton`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && id == nil) {
		return "", candidate.ErrNoActiveCandidate
	}
	if err != nil {
		return "", fmt.Errorf("get active candidate: %w", err)
	}
	return *id, nil
}
