package extract

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/ilyakh/marginalia/internal/dom"
	"github.com/ilyakh/marginalia/internal/model"
	"github.com/ilyakh/marginalia/internal/selection"
	"github.com/ilyakh/marginalia/internal/sentence"
)

func newExtractor() *SentenceExtractor {
	return NewSentenceExtractor(sentence.NewDetector(sentence.Config{
		Abbreviations:          model.DefaultAbbreviations,
		SecondaryAbbreviations: model.DefaultSecondaryAbbreviations,
	}))
}

func parse(t *testing.T, fragment string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		t.Fatalf("Expected no parse error, got %v", err)
	}
	return doc
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// selectText builds a Span over the first occurrence of text in block.
func selectText(t *testing.T, block *html.Node, text string) selection.Span {
	t.Helper()
	offs := dom.Occurrences(block, text, nil)
	if len(offs) == 0 {
		t.Fatalf("Expected %q to occur in block", text)
	}
	start, err := dom.Locate(block, offs[0])
	if err != nil {
		t.Fatalf("Expected Locate to succeed, got %v", err)
	}
	end, err := dom.Locate(block, offs[0]+len([]rune(text)))
	if err != nil {
		t.Fatalf("Expected Locate to succeed, got %v", err)
	}
	return selection.Span{Start: start, End: end}
}

func TestExtract_SkipsAbbreviationPeriods(t *testing.T) {
	doc := parse(t, `<p>Dr. Lee arrived. The ephemeral bloom fell. It was quiet.</p>`)
	p := findElement(doc, "p")

	got := newExtractor().Extract(selectText(t, p, "ephemeral"))
	want := "The ephemeral bloom fell."
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestExtract_FirstSentenceOfBlock(t *testing.T) {
	doc := parse(t, `<p>The ephemeral bloom fell. It was quiet.</p>`)
	p := findElement(doc, "p")

	got := newExtractor().Extract(selectText(t, p, "bloom"))
	want := "The ephemeral bloom fell."
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestExtract_NoTrailingBoundary(t *testing.T) {
	doc := parse(t, `<p>First part done. And then it simply trails off</p>`)
	p := findElement(doc, "p")

	got := newExtractor().Extract(selectText(t, p, "trails"))
	want := "And then it simply trails off"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestExtract_SelectionSpansWholeSentence(t *testing.T) {
	doc := parse(t, `<p>Short sentence here.</p>`)
	p := findElement(doc, "p")

	got := newExtractor().Extract(selectText(t, p, "Short sentence here."))
	if got != "" {
		t.Errorf("Expected empty context when selection covers the sentence, got %q", got)
	}
}

func TestExtract_SelectionInsideInlineElements(t *testing.T) {
	doc := parse(t, `<p>Erste Aussage endet hier. Der <em>grüne</em> Apfel fällt. Letzter Satz.</p>`)
	p := findElement(doc, "p")

	got := newExtractor().Extract(selectText(t, p, "grüne"))
	want := "Der grüne Apfel fällt."
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestExtract_UnresolvableSpanIsEmpty(t *testing.T) {
	detached := &html.Node{Type: html.TextNode, Data: "loose"}
	span := selection.Span{
		Start: dom.Position{Node: detached, Offset: 0},
		End:   dom.Position{Node: detached, Offset: 2},
	}
	if got := newExtractor().Extract(span); got != "" {
		t.Errorf("Expected empty context for detached span, got %q", got)
	}
}
