package violation

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCategory_StringAndParse(t *testing.T) {
	for _, c := range Categories() {
		parsed, err := ParseCategory(c.String())
		if err != nil {
			t.Fatalf("parse %q: %v", c, err)
		}
		if parsed != c {
			t.Errorf("expected %v, got %v", c, parsed)
		}
	}
	if len(Categories()) != 13 {
		t.Errorf("expected 13 categories, got %d", len(Categories()))
	}
}

func TestCategory_ParseUnknown(t *testing.T) {
	if _, err := ParseCategory("COLOR"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestViolation_JSONUsesCategoryName(t *testing.T) {
	v := Violation{
		Message:  "bad indent",
		Node:     NodeRef{ID: 7, Kind: "paragraph"},
		Category: ParagraphIndent,
		Expected: "1.25",
		Found:    "0.00",
	}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"category":"PARAGRAPH_INDENT"`) {
		t.Errorf("expected category name in JSON, got %s", data)
	}

	var back Violation
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Category != ParagraphIndent {
		t.Errorf("expected PARAGRAPH_INDENT, got %v", back.Category)
	}
}

func TestGroupByNode_FirstAppearanceOrder(t *testing.T) {
	vs := []Violation{
		{Message: "a", Node: NodeRef{ID: 5}},
		{Message: "b", Node: NodeRef{ID: 2}},
		{Message: "c", Node: NodeRef{ID: 5}},
	}
	groups := GroupByNode(vs)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Node.ID != 5 || len(groups[0].Violations) != 2 {
		t.Errorf("expected node 5 first with 2 violations, got %+v", groups[0])
	}
	if groups[1].Node.ID != 2 {
		t.Errorf("expected node 2 second, got %d", groups[1].Node.ID)
	}
}

func TestCounts(t *testing.T) {
	vs := []Violation{{Category: Font}, {Category: Font}, {Category: Image}}
	counts := Counts(vs)
	if counts[Font] != 2 || counts[Image] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
