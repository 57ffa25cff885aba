package question

// Difficulty constants for readability.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Per tier time limits in seconds.
const (
	TimeLimitEasy   = 20
	TimeLimitMedium = 60
	TimeLimitHard   = 120
)

// PerTier is the number of questions drawn for each difficulty.
const PerTier = 2

// Tiers lists difficulties in the order they are asked.
var Tiers = []string{DifficultyEasy, DifficultyMedium, DifficultyHard}

// SetSize is the length of a complete question set.
var SetSize = PerTier * len(Tiers)

// Question is a single timed interview prompt.
type Question struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Difficulty string `json:"difficulty"`
	TimeLimit  int    `json:"time_limit"`
}

// Request selects the role and technology stack the set is tailored to.
type Request struct {
	Role  string `json:"role"`
	Stack string `json:"stack"`
}

// Prompt is question content without identity; sources return prompts and
// the sequencer mints ids.
type Prompt struct {
	Text       string `json:"text" yaml:"text"`
	Difficulty string `json:"difficulty" yaml:"difficulty"`
}

// TimeLimitFor returns the countdown for a difficulty, 0 when unknown.
func TimeLimitFor(difficulty string) int {
	switch difficulty {
	case DifficultyEasy:
		return TimeLimitEasy
	case DifficultyMedium:
		return TimeLimitMedium
	case DifficultyHard:
		return TimeLimitHard
	default:
		return 0
	}
}

// ValidDifficulty reports whether d is one of the known tiers.
func ValidDifficulty(d string) bool {
	return TimeLimitFor(d) > 0
}
