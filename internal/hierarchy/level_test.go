package hierarchy

import (
	"strings"
	"testing"

	"github.com/coursecraft/coursecraft-backend/internal/types"
)

func testChain() Chain {
	return Chain{
		Course:  &types.Course{Name: "Linear Algebra", Description: "Vectors and matrices"},
		Subject: &types.Subject{Name: "Matrix Theory"},
		Chapter: &types.Chapter{Name: "Determinants"},
		Topic:   &types.Topic{Name: "Cofactor Expansion"},
	}
}

func TestSubjectsPromptUsesCourseContext(t *testing.T) {
	system, user := Subjects.NamesPrompt(testChain())
	if !strings.Contains(system, "between 5 and 8") {
		t.Fatalf("system prompt missing count range: %q", system)
	}
	if !strings.Contains(system, "subject") {
		t.Fatalf("system prompt missing level: %q", system)
	}
	if !strings.Contains(user, "Linear Algebra") || !strings.Contains(user, "Vectors and matrices") {
		t.Fatalf("user prompt missing course context: %q", user)
	}
	if strings.Contains(user, "Matrix Theory") {
		t.Fatalf("subject prompt should not mention deeper levels: %q", user)
	}
}

func TestSubjectsPromptSkipsEmptyDescription(t *testing.T) {
	c := testChain()
	c.Course.Description = "  "
	_, user := Subjects.NamesPrompt(c)
	if strings.Contains(user, "description") {
		t.Fatalf("blank description leaked into prompt: %q", user)
	}
}

func TestTopicsPromptIncludesFullAncestry(t *testing.T) {
	_, user := Topics.NamesPrompt(testChain())
	for _, want := range []string{"Linear Algebra", "Matrix Theory", "Determinants"} {
		if !strings.Contains(user, want) {
			t.Fatalf("topic prompt missing %q: %q", want, user)
		}
	}
}

func TestContentPromptIncludesTopic(t *testing.T) {
	system, user := ContentPrompt(testChain())
	if !strings.Contains(system, "markdown") || !strings.Contains(system, "mermaid") {
		t.Fatalf("content system prompt incomplete: %q", system)
	}
	for _, want := range []string{"Linear Algebra", "Matrix Theory", "Determinants", "Cofactor Expansion"} {
		if !strings.Contains(user, want) {
			t.Fatalf("content prompt missing %q: %q", want, user)
		}
	}
}

func TestLevelShapes(t *testing.T) {
	if Subjects.Parent != KindCourse || Subjects.Child != KindSubject {
		t.Fatalf("unexpected subjects level: %+v", Subjects)
	}
	if Contents.Parent != KindTopic || !Contents.IsContent() {
		t.Fatalf("unexpected contents level: %+v", Contents)
	}
	if Subjects.IsContent() || Chapters.IsContent() || Topics.IsContent() {
		t.Fatal("list levels must not report content")
	}
}
