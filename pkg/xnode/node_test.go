package xnode

import "testing"

func TestFind(t *testing.T) {
	doc, err := Parse([]byte(`<html><body>
<div class="card" data-id="1"><b>One</b>  title</div>
<div class="card" data-id="2">Two</div>
<p>other</p></body></html>`))
	if err != nil {
		t.Fatal(err)
	}

	cards := doc.Find(".card")
	if len(cards) != 2 {
		t.Fatalf("got %d cards, want 2", len(cards))
	}
	var ids []string
	cards.Each(func(i int, n *Node) { ids = append(ids, n.Attr("data-id")) })
	if ids[0] != "1" || ids[1] != "2" {
		t.Errorf("ids = %v", ids)
	}
	if got := cards[0].Text(); got != "One title" {
		t.Errorf("Text() = %q", got)
	}
	if doc.First("span") != nil {
		t.Error("expected no span")
	}
	if doc.Find("[[") != nil {
		t.Error("invalid selector should match nothing")
	}
}
