package models

// Question is a single generated multiple-choice question. "single" questions
// carry 4 options and 1 correct answer, "multiple" carry 5 options and 2.
type Question struct {
	ID             string   `json:"id"`
	Question       string   `json:"question"`
	Type           string   `json:"type"`
	Options        []string `json:"options"`
	CorrectAnswers []string `json:"correctAnswers"`
	Explanation    string   `json:"explanation"`
}

// QuizSession is the generated question set handed back to the client and
// serialized into the quizzes.quiz_data column. Duration is non-nil only for
// exam mode.
type QuizSession struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
	Mode      string     `json:"mode"`
	Duration  *int       `json:"duration"`
	StartTime string     `json:"startTime"`
}
