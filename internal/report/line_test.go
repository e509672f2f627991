package report

import "testing"

func collect(ls *Lines) []string {
	var out []string
	for {
		line, ok := ls.Next()
		if !ok {
			return out
		}
		out = append(out, line)
	}
}

func TestReconstructLinesOrdersTopToBottomLeftToRight(t *testing.T) {
	tokens := []Token{
		{X: 50, Y: 700, Text: "Edge SEL"},
		{X: 10, Y: 500, Text: "$8,495"},
		{X: 10, Y: 700, Text: "2015 Ford"},
	}
	lines := collect(ReconstructLines(tokens, 0))
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "2015 Ford Edge SEL" {
		t.Fatalf("expected first line joined left-to-right, got %q", lines[0])
	}
	if lines[1] != "$8,495" {
		t.Fatalf("expected price line second, got %q", lines[1])
	}
}

func TestReconstructLinesToleratesBaselineJitter(t *testing.T) {
	// 同一视觉行，Y 有亚像素抖动；四舍五入分桶会拆成两行
	tokens := []Token{
		{X: 10, Y: 700.4, Text: "VIN:"},
		{X: 40, Y: 699.6, Text: "2FMTK4J85FBB65810"},
	}
	lines := collect(ReconstructLines(tokens, 2.0))
	if len(lines) != 1 {
		t.Fatalf("expected jittered tokens on one line, got %d: %v", len(lines), lines)
	}
	if lines[0] != "VIN: 2FMTK4J85FBB65810" {
		t.Fatalf("unexpected line: %q", lines[0])
	}
}

func TestReconstructLinesSplitsBeyondTolerance(t *testing.T) {
	tokens := []Token{
		{X: 10, Y: 700, Text: "first"},
		{X: 10, Y: 690, Text: "second"},
	}
	lines := collect(ReconstructLines(tokens, 2.0))
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %v", len(lines), lines)
	}
}

func TestReconstructLinesRepairsSplitNumbers(t *testing.T) {
	// 千分位被拆成独立片段："99" "," "377"
	tokens := []Token{
		{X: 10, Y: 700, Text: "Body: 4D Sport Utility"},
		{X: 80, Y: 700, Text: "99"},
		{X: 84, Y: 700, Text: ","},
		{X: 86, Y: 700, Text: "377"},
	}
	lines := collect(ReconstructLines(tokens, 2.0))
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %v", lines)
	}
	if lines[0] != "Body: 4D Sport Utility 99,377" {
		t.Fatalf("expected repaired number, got %q", lines[0])
	}
}

func TestReconstructLinesSkipsBlankTokens(t *testing.T) {
	tokens := []Token{
		{X: 10, Y: 700, Text: "   "},
		{X: 20, Y: 700, Text: "only"},
	}
	lines := collect(ReconstructLines(tokens, 0))
	if len(lines) != 1 || lines[0] != "only" {
		t.Fatalf("expected blank tokens dropped, got %v", lines)
	}
}

func TestLinesNextIsOneShot(t *testing.T) {
	ls := ReconstructLines([]Token{{X: 0, Y: 0, Text: "a"}}, 0)
	if _, ok := ls.Next(); !ok {
		t.Fatalf("expected first Next to succeed")
	}
	if _, ok := ls.Next(); ok {
		t.Fatalf("expected sequence exhausted")
	}
	if _, ok := ls.Next(); ok {
		t.Fatalf("expected sequence to stay exhausted")
	}
}
