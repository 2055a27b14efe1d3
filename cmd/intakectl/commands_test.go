package main

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
	"github.com/kirillkom/equipment-intake/internal/core/ports"
	"github.com/kirillkom/equipment-intake/internal/infrastructure/repository/memory"
	"github.com/kirillkom/equipment-intake/internal/infrastructure/similarity"
)

func run(t *testing.T, opener catalogOpener, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(opener)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func noCatalog(t *testing.T) catalogOpener {
	return func(context.Context) (ports.CatalogStore, func(), error) {
		t.Fatalf("catalog must not be opened")
		return nil, nil, nil
	}
}

func TestSlotsCommand(t *testing.T) {
	out, err := run(t, noCatalog(t), "slots", "S1", "c2.1.jpg")
	if err != nil {
		t.Fatalf("slots error = %v", err)
	}
	if !strings.Contains(out, "C2.1") || !strings.Contains(out, "OilSeparator") {
		t.Fatalf("expected oil separator slot in output:\n%s", out)
	}
	if !strings.Contains(out, "Tank") {
		t.Fatalf("expected tank slot in output:\n%s", out)
	}
}

func TestSlotsCommandFailsOnMalformedLabel(t *testing.T) {
	out, err := run(t, noCatalog(t), "slots", "S1", "Q7")
	if err == nil {
		t.Fatalf("expected error for malformed label")
	}
	if !strings.Contains(out, "Q7") {
		t.Fatalf("expected malformed label to be listed:\n%s", out)
	}
}

func TestClassifyCommand(t *testing.T) {
	out, err := run(t, noCatalog(t), "classify", "--volume", "100", "--pressure", "10", "--ped", "II")
	if err != nil {
		t.Fatalf("classify error = %v", err)
	}
	for _, want := range []string{"filing: Declaration", "ped: III", "ped consistent: false"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestClassifyCommandWithoutPressure(t *testing.T) {
	out, err := run(t, noCatalog(t), "classify", "--volume", "100")
	if err != nil {
		t.Fatalf("classify error = %v", err)
	}
	if !strings.Contains(out, "filing: None") || !strings.Contains(out, "ped: unknown") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet("Models"); err != nil {
		t.Fatalf("NewSheet() error = %v", err)
	}
	rows := [][]any{
		{"TYPE", "BRAND", "MODEL", "V/FAD", "PS/PTAR", "TS", "PED_CAT"},
		{"Tank", "Acme", "T500", "500", "11", "50", "III"},
		{"Compressor", "Atlas Copco", "GA 30", "5200", "10", "", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName() error = %v", err)
		}
		values := row
		if err := f.SetSheetRow("Models", cell, &values); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "models.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}
	return path
}

func TestImportCatalogCommand(t *testing.T) {
	store := memory.NewCatalogStore(similarity.NewLevenshtein())
	released := false
	opener := func(context.Context) (ports.CatalogStore, func(), error) {
		return store, func() { released = true }, nil
	}

	out, err := run(t, opener, "import-catalog", writeWorkbook(t))
	if err != nil {
		t.Fatalf("import-catalog error = %v", err)
	}
	if !strings.Contains(out, "imported: 2") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !released {
		t.Fatalf("expected catalog to be released")
	}

	entry, err := store.Get(context.Background(), domain.CatalogKey{Type: domain.EquipmentTank, Brand: "Acme", Model: "T500"})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if entry == nil {
		t.Fatalf("expected imported tank entry")
	}
}

func TestImportCatalogDryRunDoesNotOpenCatalog(t *testing.T) {
	out, err := run(t, noCatalog(t), "import-catalog", "--dry-run", writeWorkbook(t))
	if err != nil {
		t.Fatalf("import-catalog error = %v", err)
	}
	if !strings.Contains(out, "2 entries parsed") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestImportCatalogMissingFile(t *testing.T) {
	_, err := run(t, noCatalog(t), "import-catalog", filepath.Join(t.TempDir(), "absent.xlsx"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
