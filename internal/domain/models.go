package domain

import "time"

// Mode selects how the question pool for a session is built.
type Mode string

const (
	ModeNormal    Mode = "normal"    // catalog order
	ModeRandom    Mode = "random"    // shuffled
	ModeWrongOnly Mode = "wrongOnly" // previously missed questions
	ModeBookmarks Mode = "bookmarks" // starred questions
)

// ParseMode validates a raw mode string, defaulting to ModeNormal.
func ParseMode(raw string) Mode {
	switch Mode(raw) {
	case ModeRandom, ModeWrongOnly, ModeBookmarks:
		return Mode(raw)
	default:
		return ModeNormal
	}
}

// Reference points at supporting material for a question's explanation.
type Reference struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Question models an MCQ question with exactly one correct choice.
// Choice keys are opaque identifiers; they are not guaranteed to be A-D.
type Question struct {
	ID           string            `json:"id"`
	Section      string            `json:"section"`
	SectionTitle string            `json:"sectionTitle"`
	Prompt       string            `json:"question"`
	Choices      map[string]string `json:"choices"`
	Answer       string            `json:"answer"`
	Explanation  string            `json:"explanation"`
	References   []Reference       `json:"references,omitempty"`
}

// ProgressRecord accumulates lifetime statistics for one question.
type ProgressRecord struct {
	SeenCount      int        `json:"seenCount"`
	CorrectCount   int        `json:"correctCount"`
	WrongCount     int        `json:"wrongCount"`
	LastAnsweredAt *time.Time `json:"lastAnsweredAt"`
	Bookmark       bool       `json:"bookmark"`
}

// ProgressMap is the persisted progress document, keyed by question ID.
type ProgressMap map[string]ProgressRecord

// Settings is the user's pool-selection configuration. Saved wholesale;
// Sections must be non-empty.
type Settings struct {
	Sections []string `json:"sections"`
	Mode     Mode     `json:"mode"`
	Count    string   `json:"count"` // "all" or a positive integer
}

// SessionSchemaVersion tags persisted sessions so future shapes can be told apart.
const SessionSchemaVersion = 1

// Session is the active run. Order is fixed at creation and never reordered;
// CurrentIndex always addresses a valid element while the session is active.
type Session struct {
	SchemaVersion   int                          `json:"schemaVersion"`
	Mode            Mode                         `json:"mode"`
	Order           []string                     `json:"order"`
	CurrentIndex    int                          `json:"currentIndex"`
	Answers         map[string]string            `json:"answers"`
	ChoiceMap       map[string]map[string]string `json:"choiceMap"`
	Graded          map[string]bool              `json:"graded"`
	ExplanationOpen bool                         `json:"explanationOpen"`
	CompletedAt     *time.Time                   `json:"completedAt"`
	StartedAt       time.Time                    `json:"startedAt"`
	SavedAt         time.Time                    `json:"savedAt"`
	SettingsSnap    *Settings                    `json:"settingsSnapshot,omitempty"`
}

// SectionScore is one section's slice of a Summary.
type SectionScore struct {
	OK          int `json:"ok"`
	Total       int `json:"total"`
	RatePercent int `json:"ratePercent"`
}

// Summary is the final scoring of a finished session. WrongQuestions holds
// incorrect and unanswered questions in session order.
type Summary struct {
	CorrectCount       int                     `json:"correctCount"`
	Total              int                     `json:"total"`
	OverallRatePercent int                     `json:"overallRatePercent"`
	PerSection         map[string]SectionScore `json:"perSection"`
	WrongQuestions     []Question              `json:"wrongQuestions"`
}

// AnswerResult summarizes the outcome of grading one submission.
type AnswerResult struct {
	QuestionID   string `json:"questionId"`
	ChosenLabel  string `json:"chosenLabel"`
	Correct      bool   `json:"correct"`
	CorrectLabel string `json:"correctLabel"`
}

// Choice pairs a display label with the choice text it maps to.
type Choice struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// QuestionView is the immutable snapshot the presentation layer renders for
// the current position in a session.
type QuestionView struct {
	Question        Question `json:"question"`
	Index           int      `json:"index"` // 1-based
	Total           int      `json:"total"`
	Choices         []Choice `json:"choices"` // display order
	ChosenLabel     string   `json:"chosenLabel,omitempty"`
	Graded          bool     `json:"graded"`
	CorrectLabel    string   `json:"correctLabel,omitempty"` // set once graded
	ExplanationOpen bool     `json:"explanationOpen"`
	Bookmarked      bool     `json:"bookmarked"`
}
