package domain

import "fmt"

// Question is a single DNS question-section entry. This resolver only
// ever handles messages with exactly one question.
type Question struct {
	Name  DomainName
	Type  RRType
	Class RRClass
}

// NewQuestion builds a Question, defaulting Class to IN when zero.
func NewQuestion(name DomainName, t RRType, class RRClass) Question {
	if class == 0 {
		class = RRClassIN
	}
	return Question{Name: name, Type: t, Class: class}
}

// String renders the question in a log-friendly "name type class" form.
func (q Question) String() string {
	return fmt.Sprintf("%s %s %s", q.Name, q.Type, q.Class)
}
