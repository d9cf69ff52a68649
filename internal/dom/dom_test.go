package dom

import (
	"strings"
	"testing"
	"unicode/utf8"

	"golang.org/x/net/html"
)

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

func TestFlattenText_SplitAcrossElements(t *testing.T) {
	doc := parse(t, `<p>The <em>ephemeral <b>bloom</b></em> fell.</p>`)
	p := findElement(doc, "p")

	got := FlattenText(p)
	want := "The ephemeral bloom fell."
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestFlattenText_SkipsScriptAndStyle(t *testing.T) {
	doc := parse(t, `<div>visible<script>var x = 1;</script><style>.a{}</style> text</div>`)
	div := findElement(doc, "div")

	got := FlattenText(div)
	if got != "visible text" {
		t.Errorf("Expected %q, got %q", "visible text", got)
	}
}

func TestBlockScope(t *testing.T) {
	doc := parse(t, `<div><p>some <em>nested</em> text</p></div>`)
	em := findElement(doc, "em")

	block := BlockScope(em.FirstChild)
	if block == nil || block.Data != "p" {
		t.Fatalf("Expected block scope <p>, got %v", block)
	}

	p := findElement(doc, "p")
	if BlockScope(p) != p {
		t.Error("Expected a block element to be its own scope")
	}
}

func TestCommonBlock(t *testing.T) {
	doc := parse(t, `<p>alpha <em>beta</em> gamma</p>`)
	p := findElement(doc, "p")
	em := findElement(doc, "em")

	block := CommonBlock(p.FirstChild, em.FirstChild)
	if block != p {
		t.Errorf("Expected common block <p>, got %v", block)
	}
}

func TestOffsetOfLocate_MutualInverses(t *testing.T) {
	doc := parse(t, `<p>Der <em>grüne <b>Apfel</b></em> fällt weit.</p>`)
	p := findElement(doc, "p")

	total := utf8.RuneCountInString(FlattenText(p))
	for g := 0; g <= total; g++ {
		pos, err := Locate(p, g)
		if err != nil {
			t.Fatalf("Expected Locate to succeed at %d, got %v", g, err)
		}
		back, err := OffsetOf(p, pos.Node, pos.Offset)
		if err != nil {
			t.Fatalf("Expected OffsetOf to succeed at %d, got %v", g, err)
		}
		if back != g {
			t.Errorf("Expected round-trip of %d, got %d", g, back)
		}
	}
}

func TestLocate_PastEndIsNotFound(t *testing.T) {
	doc := parse(t, `<p>short</p>`)
	p := findElement(doc, "p")

	if _, err := Locate(p, 6); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound past total length, got %v", err)
	}
	if _, err := Locate(p, -1); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound for negative offset, got %v", err)
	}
}

func TestOffsetOf_ForeignNodeIsNotFound(t *testing.T) {
	doc := parse(t, `<div><p>one</p><h2>two</h2></div>`)
	p := findElement(doc, "p")
	h2 := findElement(doc, "h2")

	if _, err := OffsetOf(p, h2.FirstChild, 0); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound for leaf outside block, got %v", err)
	}
}

func TestNormalize_MergesAdjacentTextNodes(t *testing.T) {
	doc := parse(t, `<p>ab</p>`)
	p := findElement(doc, "p")

	// Split the single text node manually, then normalize back.
	leaf := p.FirstChild
	leaf.Data = "a"
	p.AppendChild(&html.Node{Type: html.TextNode, Data: ""})
	p.AppendChild(&html.Node{Type: html.TextNode, Data: "b"})

	Normalize(p)

	if p.FirstChild == nil || p.FirstChild.NextSibling != nil {
		t.Fatal("Expected a single child after normalize")
	}
	if p.FirstChild.Data != "ab" {
		t.Errorf("Expected merged text %q, got %q", "ab", p.FirstChild.Data)
	}
}

func TestOccurrences_SkipFilter(t *testing.T) {
	doc := parse(t, `<p>bank of the <mark>bank</mark> and bank</p>`)
	p := findElement(doc, "p")
	mark := findElement(doc, "mark")

	skip := func(leaf *html.Node) bool { return Contains(mark, leaf) }

	offs := Occurrences(p, "bank", skip)
	if len(offs) != 2 {
		t.Fatalf("Expected 2 occurrences outside the marker, got %d (%v)", len(offs), offs)
	}
	if offs[0] != 0 {
		t.Errorf("Expected first occurrence at 0, got %d", offs[0])
	}

	all := Occurrences(p, "bank", nil)
	if len(all) != 3 {
		t.Errorf("Expected 3 occurrences without filter, got %d", len(all))
	}
}

func TestFindText_NestedBlockCountsOnce(t *testing.T) {
	doc := parse(t, `<div>intro text <p>the needle word.</p></div>`)
	p := findElement(doc, "p")

	// The div's flattened text also contains the nested <p>'s occurrence;
	// it must be reported once, against the <p>.
	matches := FindText(doc, "needle", nil)
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match for a single occurrence, got %d", len(matches))
	}
	if matches[0].Block != p {
		t.Errorf("Expected the match to resolve to the innermost <p>, got <%s>", matches[0].Block.Data)
	}
	if matches[0].Start != 4 {
		t.Errorf("Expected offset 4 in the <p> flatten, got %d", matches[0].Start)
	}
}

func TestFindText_SpanAcrossNestedBlockKept(t *testing.T) {
	doc := parse(t, `<div>intro text <p>the needle word.</p></div>`)
	div := findElement(doc, "div")

	matches := FindText(doc, "text the", nil)
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match spanning into the nested block, got %d", len(matches))
	}
	if matches[0].Block != div {
		t.Errorf("Expected the spanning match to resolve to <div>, got <%s>", matches[0].Block.Data)
	}
}

func TestFindText_DocumentOrder(t *testing.T) {
	doc := parse(t, `<body><p>nothing here</p><p>the word target appears</p></body>`)

	matches := FindText(doc, "target", nil)
	if len(matches) == 0 {
		t.Fatal("Expected at least one match")
	}
	text := []rune(FlattenText(matches[0].Block))
	start := matches[0].Start
	if string(text[start:start+6]) != "target" {
		t.Errorf("Expected match offset to point at the needle, got %q", string(text[start:start+6]))
	}
}
