package deps

import "testing"

func TestCheckBinariesFindsShell(t *testing.T) {
	statuses := CheckBinaries([]Requirement{{Name: "shell", Binary: "sh"}})
	if len(statuses) != 1 {
		t.Fatalf("expected one status, got %d", len(statuses))
	}
	if !statuses[0].Found {
		t.Fatalf("expected sh on PATH, got error %v", statuses[0].Err)
	}
	if statuses[0].Path == "" {
		t.Fatal("expected resolved path")
	}
}

func TestCheckBinariesReportsMissing(t *testing.T) {
	statuses := CheckBinaries([]Requirement{
		{Name: "phantom", Binary: "definitely-not-a-real-binary-8471", Optional: true},
	})
	if statuses[0].Found {
		t.Fatal("expected lookup failure")
	}
	if statuses[0].Err == nil {
		t.Fatal("expected error for missing binary")
	}
	if missing := MissingRequired(statuses); len(missing) != 0 {
		t.Fatalf("optional requirement should not be reported missing, got %v", missing)
	}
}

func TestMissingRequired(t *testing.T) {
	statuses := CheckBinaries([]Requirement{
		{Name: "phantom", Binary: "definitely-not-a-real-binary-8471"},
	})
	missing := MissingRequired(statuses)
	if len(missing) != 1 || missing[0] != "definitely-not-a-real-binary-8471" {
		t.Fatalf("unexpected missing list: %v", missing)
	}
}
