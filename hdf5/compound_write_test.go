package hdf5

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robert-malhotra/go-mth5/internal/message"
)

func compoundTestType() *message.Datatype {
	f64 := message.NewFloatDatatype(8, message.OrderLE)
	return message.NewCompoundDatatype(16, []message.CompoundMember{
		{Name: "real", ByteOffset: 0, Type: f64},
		{Name: "imag", ByteOffset: 8, Type: f64},
	})
}

func TestWriteCompoundDataset(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "hdf5-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	testFile := filepath.Join(tmpDir, "test_compound.h5")

	f, err := Create(testFile)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	type pair struct {
		Real float64
		Imag float64
	}
	records := []pair{{1, 2}, {0, 0}, {1, -2}}

	ds, err := f.Root().CreateDatasetWithType("pairs", []uint64{3}, compoundTestType())
	if err != nil {
		t.Fatalf("CreateDatasetWithType failed: %v", err)
	}
	if err := ds.Write(records); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Reopen and verify
	f2, err := Open(testFile)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f2.Close()

	ds2, err := f2.OpenDataset("pairs")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}

	rows, err := ds2.ReadCompound()
	if err != nil {
		t.Fatalf("ReadCompound failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0]["real"] != 1.0 || rows[0]["imag"] != 2.0 {
		t.Errorf("row 0 = %v, want real=1 imag=2", rows[0])
	}
	if rows[2]["imag"] != -2.0 {
		t.Errorf("row 2 imag = %v, want -2", rows[2]["imag"])
	}

	reals, err := ds2.ReadCompoundColumn("real")
	if err != nil {
		t.Fatalf("ReadCompoundColumn failed: %v", err)
	}
	want := []float64{1, 0, 1}
	for i := range want {
		if reals[i] != want[i] {
			t.Errorf("real[%d] = %v, want %v", i, reals[i], want[i])
		}
	}

	if _, err := ds2.ReadCompoundColumn("nope"); err == nil {
		t.Error("Expected error for unknown compound member")
	}
}

func TestWriteEmptyCompoundDataset(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "hdf5-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	testFile := filepath.Join(tmpDir, "test_compound_empty.h5")

	f, err := Create(testFile)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	type pair struct {
		Real float64
		Imag float64
	}
	ds, err := f.Root().CreateDatasetWithType("empty", []uint64{0}, compoundTestType())
	if err != nil {
		t.Fatalf("CreateDatasetWithType failed: %v", err)
	}
	if err := ds.Write([]pair{}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	f.Close()

	f2, err := Open(testFile)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f2.Close()

	ds2, err := f2.OpenDataset("empty")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}
	rows, err := ds2.ReadCompound()
	if err != nil {
		t.Fatalf("ReadCompound failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected 0 rows, got %d", len(rows))
	}
}

func TestCompoundDatasetInNestedGroup(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "hdf5-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	testFile := filepath.Join(tmpDir, "test_compound_nested.h5")

	f, err := Create(testFile)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	outer, err := f.Root().CreateGroup("outer")
	if err != nil {
		t.Fatalf("CreateGroup outer failed: %v", err)
	}
	inner, err := outer.CreateGroup("inner")
	if err != nil {
		t.Fatalf("CreateGroup inner failed: %v", err)
	}

	type pair struct {
		Real float64
		Imag float64
	}
	ds, err := inner.CreateDatasetWithType("pairs", []uint64{2}, compoundTestType())
	if err != nil {
		t.Fatalf("CreateDatasetWithType failed: %v", err)
	}
	if err := ds.Write([]pair{{3, 4}, {5, 6}}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	f.Close()

	f2, err := Open(testFile)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f2.Close()

	ds2, err := f2.OpenDataset("outer/inner/pairs")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}
	imags, err := ds2.ReadCompoundColumn("imag")
	if err != nil {
		t.Fatalf("ReadCompoundColumn failed: %v", err)
	}
	if len(imags) != 2 || imags[0] != 4 || imags[1] != 6 {
		t.Errorf("imag column = %v, want [4 6]", imags)
	}
}
