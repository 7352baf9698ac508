package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingNesting(t *testing.T) {
	input := `# Top

Intro text.

## Sub A

Sub A body.

## Sub B

Sub B body.

# Second Top

Second body.
`
	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tree.Children) != 2 {
		t.Fatalf("expected 2 top-level sections, got %d", len(tree.Children))
	}
	top := tree.Children[0]
	if top.Title != "Top" {
		t.Errorf("expected title Top, got %q", top.Title)
	}
	if !strings.Contains(top.Text, "Intro text.") {
		t.Errorf("expected intro text in section, got %q", top.Text)
	}
	if len(top.Children) != 2 {
		t.Fatalf("expected 2 subsections, got %d", len(top.Children))
	}
	if top.Children[0].Title != "Sub A" || top.Children[1].Title != "Sub B" {
		t.Errorf("unexpected subsection titles: %q, %q", top.Children[0].Title, top.Children[1].Title)
	}
	if tree.Children[1].Title != "Second Top" {
		t.Errorf("expected Second Top, got %q", tree.Children[1].Title)
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader("Just a paragraph.\n\nAnd another."), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected single text node for heading-less doc, got %d", len(tree.Children))
	}
	if !strings.Contains(tree.Children[0].Text, "Just a paragraph.") {
		t.Errorf("expected body text, got %q", tree.Children[0].Text)
	}
}

func TestMarkdownParser_FencedCodeBlock(t *testing.T) {
	input := "# Setup\n\n```\nmake build\nmake install\n```\n"
	p := &MarkdownParser{}
	tree, err := p.Parse(strings.NewReader(input), "setup.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 section, got %d", len(tree.Children))
	}
	text := tree.Children[0].Text
	if !strings.Contains(text, "make build") || !strings.Contains(text, "make install") {
		t.Errorf("expected code block lines in section text, got %q", text)
	}
	if strings.Count(text, "make build") != 1 {
		t.Errorf("expected code line exactly once, got %q", text)
	}
}
