package report

import "testing"

func TestParseTabSeparated(t *testing.T) {
	raw := "15\tFord\tEdge\tSEL\t2FMTK4J85FBB65810\t99,377\tSilver\t$8,495\n" +
		"Edit\tView Picture\n" +
		"\n" +
		"2016\tKia\tOptima\tLX\t5XXGM4A73DG156789\t88,000\tWhite\t5,995\tFEATURED extra\n"
	vehicles := ParseTabSeparated(raw)
	if len(vehicles) != 1 {
		t.Fatalf("expected 1 vehicle (FEATURED and Edit rows skipped), got %d: %+v", len(vehicles), vehicles)
	}
	v := vehicles[0]
	if v.Year != "2015" {
		t.Fatalf("expected 2-digit year promoted, got %q", v.Year)
	}
	if v.Make != "Ford" || v.Model != "Edge" || v.Trim != "SEL" {
		t.Fatalf("unexpected name fields: %+v", v)
	}
	if v.VIN != "2FMTK4J85FBB65810" {
		t.Fatalf("unexpected VIN: %q", v.VIN)
	}
	if v.Mileage != "99377" || v.Price != "8495" {
		t.Fatalf("expected normalized numbers, got mileage=%q price=%q", v.Mileage, v.Price)
	}
}

func TestParseTabSeparatedSkipsShortRows(t *testing.T) {
	if got := ParseTabSeparated("15\tFord\tEdge\n"); len(got) != 0 {
		t.Fatalf("expected short row skipped, got %+v", got)
	}
}
