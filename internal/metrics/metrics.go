package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mock_interview"

var (
	// QuestionSetsGenerated counts question sets by the source that produced them.
	QuestionSetsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "question_sets_generated_total",
		Help:      "Question sets generated, labelled by source (cache, remote, bank).",
	}, []string{"source"})

	// AnswersRecorded counts accepted answers by how they were submitted.
	AnswersRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "answers_recorded_total",
		Help:      "Answers appended to a candidate, labelled by trigger (submit, expiry).",
	}, []string{"trigger"})

	// DroppedAnswers counts submissions, turns and expiries that did not
	// record an answer.
	DroppedAnswers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dropped_answers_total",
		Help:      "Answer submissions and expiries dropped, labelled by reason (already_recorded, stale_expiry, stale_index, unpinned_turn, not_asking, store_out_of_order).",
	}, []string{"reason"})

	// EvaluationSource counts scores by the evaluator that produced them.
	EvaluationSource = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evaluations_total",
		Help:      "Answer evaluations, labelled by source (local, remote, fallback).",
	}, []string{"source"})

	// EvaluationDuration measures time spent scoring an answer.
	EvaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "evaluation_duration_seconds",
		Help:      "Time spent evaluating a single answer.",
		Buckets:   prometheus.DefBuckets,
	})

	// SessionsCompleted counts finished interviews.
	SessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_completed_total",
		Help:      "Interviews that reached the finished phase.",
	})

	// FinalScores observes the distribution of final scores.
	FinalScores = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "final_score",
		Help:      "Final interview scores.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	// PhaseTransitions counts state machine transitions by target phase.
	PhaseTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "phase_transitions_total",
		Help:      "Session phase transitions, labelled by the phase entered.",
	}, []string{"phase"})

	// ResumeUploads counts resume uploads by outcome.
	ResumeUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resume_uploads_total",
		Help:      "Resume uploads, labelled by outcome.",
	}, []string{"outcome"})

	// StoreErrors counts failed persistence commands.
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_errors_total",
		Help:      "Persistence command failures, labelled by command.",
	}, []string{"command"})
)
