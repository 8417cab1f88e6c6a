package domain

import "errors"

var (
	// ErrEmptyPool is returned when the section/mode filters leave no questions.
	ErrEmptyPool = errors.New("no questions match the current filters")
	// ErrNoSelection is returned when a submitted label is not a valid display label.
	ErrNoSelection = errors.New("no choice selected")
	// ErrNoSections rejects settings without at least one section.
	ErrNoSections = errors.New("at least one section required")
	// ErrAnswerRequired blocks advancing past an ungraded question.
	ErrAnswerRequired = errors.New("current question must be answered first")
	// ErrNoActiveSession is returned when an operation needs a running session.
	ErrNoActiveSession = errors.New("no active session")
	// ErrQuestionNotFound indicates a question ID outside the catalog or session order.
	ErrQuestionNotFound = errors.New("question not found")
)
