package hierarchy

import (
	"fmt"
	"strings"

	"github.com/coursecraft/coursecraft-backend/internal/types"
)

// Kind names one level of the study tree.
type Kind string

const (
	KindCourse  Kind = "course"
	KindSubject Kind = "subject"
	KindChapter Kind = "chapter"
	KindTopic   Kind = "topic"
	KindContent Kind = "content"
)

// Chain is a resolved ancestor chain. Pointers are populated from the
// course down to the deepest entity that was addressed; deeper links stay
// nil. It is produced by the ownership resolver and consumed by the prompt
// builders, which need ancestor names.
type Chain struct {
	Course  *types.Course
	Subject *types.Subject
	Chapter *types.Chapter
	Topic   *types.Topic
}

// Level describes one parent→child generation step. Subject, chapter and
// topic generation share the same list-shaped flow and differ only in the
// prompt context and the addressed parent; content is the single leaf
// document below a topic.
type Level struct {
	Parent Kind
	Child  Kind

	// Target range for generated names. The provider is not trusted to
	// honor the exact count; any non-empty list is accepted downstream.
	MinNames int
	MaxNames int
}

var (
	Subjects = Level{Parent: KindCourse, Child: KindSubject, MinNames: 5, MaxNames: 8}
	Chapters = Level{Parent: KindSubject, Child: KindChapter, MinNames: 5, MaxNames: 8}
	Topics   = Level{Parent: KindChapter, Child: KindTopic, MinNames: 5, MaxNames: 8}
	Contents = Level{Parent: KindTopic, Child: KindContent}
)

func (l Level) IsContent() bool { return l.Child == KindContent }

// NamesPrompt builds the system and user prompts for a list-level
// generation call from the ancestor chain.
func (l Level) NamesPrompt(c Chain) (system string, user string) {
	system = fmt.Sprintf(
		"You are a curriculum designer. Produce between %d and %d concise %s names for the study unit described by the user. Names must be distinct, ordered from foundational to advanced, and contain no numbering or markdown.",
		l.MinNames, l.MaxNames, l.Child,
	)

	var b strings.Builder
	switch l.Child {
	case KindSubject:
		fmt.Fprintf(&b, "Course: %s\n", c.Course.Name)
		if strings.TrimSpace(c.Course.Description) != "" {
			fmt.Fprintf(&b, "Course description: %s\n", c.Course.Description)
		}
		b.WriteString("List the subjects this course should cover.")
	case KindChapter:
		fmt.Fprintf(&b, "Course: %s\n", c.Course.Name)
		fmt.Fprintf(&b, "Subject: %s\n", c.Subject.Name)
		b.WriteString("List the chapters this subject should cover.")
	case KindTopic:
		fmt.Fprintf(&b, "Course: %s\n", c.Course.Name)
		fmt.Fprintf(&b, "Subject: %s\n", c.Subject.Name)
		fmt.Fprintf(&b, "Chapter: %s\n", c.Chapter.Name)
		b.WriteString("List the topics this chapter should cover.")
	}
	return system, b.String()
}

// ContentPrompt builds the prompts for the long-form document of a topic.
func ContentPrompt(c Chain) (system string, user string) {
	system = "You are a tutor writing a self-contained study document in markdown. Use headings, short paragraphs and worked examples. When a diagram clarifies the material, include it as a fenced mermaid block. Return only the document."

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", c.Course.Name)
	fmt.Fprintf(&b, "Subject: %s\n", c.Subject.Name)
	fmt.Fprintf(&b, "Chapter: %s\n", c.Chapter.Name)
	fmt.Fprintf(&b, "Topic: %s\n", c.Topic.Name)
	b.WriteString("Write the full study document for this topic.")
	return system, b.String()
}
