package catalog

import (
	"strings"
	"testing"
)

func TestParseRecords_ASCII(t *testing.T) {
	input := `supplier: Hongda Hardware
name: hex bolt, spec: M8x40, unit: piece, price: 0.5
name: flat washer, spec: M8, unit: piece, price: 0.05
`
	records, err := ParseRecords(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Supplier != "Hongda Hardware" {
		t.Errorf("expected supplier from header, got %q", records[0].Supplier)
	}
	if records[0].Name != "hex bolt" || records[0].Spec != "M8x40" || records[0].Unit != "piece" {
		t.Errorf("got %+v", records[0])
	}
	if records[0].Price != 0.5 {
		t.Errorf("expected price 0.5, got %f", records[0].Price)
	}
}

func TestParseRecords_CJK(t *testing.T) {
	input := "供应商：宏达五金\n品名：六角螺栓，规格：M8×30，单位：个，单价：0.12元\n"
	records, err := ParseRecords(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Supplier != "宏达五金" || r.Name != "六角螺栓" || r.Spec != "M8×30" || r.Unit != "个" {
		t.Errorf("got %+v", r)
	}
	if r.Price != 0.12 {
		t.Errorf("expected price 0.12, got %f", r.Price)
	}
}

func TestParseRecords_SupplierSwitch(t *testing.T) {
	input := `supplier: A
name: bolt, spec: M8, unit: piece, price: 1
supplier: B
name: nut, spec: M8, unit: piece, price: 2
`
	records, err := ParseRecords(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Supplier != "A" || records[1].Supplier != "B" {
		t.Errorf("supplier headers not applied: %q, %q", records[0].Supplier, records[1].Supplier)
	}
}

func TestParseRecords_IgnoresJunkLines(t *testing.T) {
	input := `# price list, updated monthly
supplier: A

some free-form note
name: bolt, spec: M8, unit: piece, price: not-a-number
name: nut, spec: M8, unit: piece, price: 2
`
	records, err := ParseRecords(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Name != "nut" {
		t.Errorf("got %+v", records[0])
	}
}

func TestParseRecords_NoSupplierHeader(t *testing.T) {
	records, err := ParseRecords(strings.NewReader("name: bolt, spec: M8, unit: piece, price: 1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Supplier != "" {
		t.Errorf("expected empty supplier, got %q", records[0].Supplier)
	}
}
