package frauddb

import "testing"

func TestRecordValuesMapsEmptyToNull(t *testing.T) {
	record := []string{"0", "2019-01-01 00:00:18", "", "fraud_Rippin", "misc_net"}
	values := recordValues(record)

	if len(values) != len(record) {
		t.Fatalf("expected %d values, got %d", len(record), len(values))
	}
	if values[2] != nil {
		t.Fatalf("empty field should map to nil, got %v", values[2])
	}
	if values[0] != "0" || values[3] != "fraud_Rippin" {
		t.Fatalf("non-empty fields should pass through: %v", values)
	}
}

func TestTableColumnsMatchDDL(t *testing.T) {
	if len(tableColumns) != 23 {
		t.Fatalf("expected 23 columns, got %d", len(tableColumns))
	}
	if tableColumns[0] != "row_index" || tableColumns[len(tableColumns)-1] != "is_fraud" {
		t.Fatalf("unexpected column order: %v", tableColumns)
	}
}
