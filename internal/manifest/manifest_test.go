package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var sample = []Record{
	{FileName: "a.pdf", InvoiceNum: "INV100", VoucherNum: "V-77"},
	{FileName: "b.pdf", InvoiceNum: "INV101", VoucherNum: ""},
	{FileName: "c d.pdf", InvoiceNum: "1234", VoucherNum: "5678"},
}

func TestNormalizeCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  V-77 ", "V-77"},
		{"nan", ""},
		{"NaN", ""},
		{"1234.0", "1234"},
		{"1234.00", "1234"},
		{"1234.5", "1234.5"},
		{"-12.0", "-12"},
		{".0", ".0"},
		{"12.", "12."},
		{"INV.0", "INV.0"},
	}
	for _, tt := range tests {
		if got := normalizeCell(tt.in); got != tt.want {
			t.Errorf("normalizeCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		wantErr bool
	}{
		{"valid", Record{FileName: "a.pdf", InvoiceNum: "INV1"}, false},
		{"no file", Record{InvoiceNum: "INV1"}, true},
		{"no invoice", Record{FileName: "a.pdf"}, true},
		{"dot", Record{FileName: "a.pdf", InvoiceNum: "."}, true},
		{"dot dot", Record{FileName: "a.pdf", InvoiceNum: ".."}, true},
		{"slash", Record{FileName: "a.pdf", InvoiceNum: "2024/01"}, true},
		{"backslash", Record{FileName: "a.pdf", InvoiceNum: `2024\01`}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("Validate() error = %v, want ErrInvalidRecord", err)
			}
		})
	}
}

func TestRecord_OutputName(t *testing.T) {
	r := Record{FileName: "x.pdf", InvoiceNum: "INV 7"}
	if got := r.OutputName(); got != "INV 7.pdf" {
		t.Errorf("OutputName() = %q, want %q", got, "INV 7.pdf")
	}
	if r.HasVoucher() {
		t.Error("HasVoucher() = true for empty voucher")
	}
}

func TestWriteRead(t *testing.T) {
	for _, ext := range []string{".xlsx", ".csv", ".json"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "manifest"+ext)
			if err := Write(path, sample, Options{}); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			got, err := Read(path, Options{})
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if diff := cmp.Diff(sample, got); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("named sheet", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "manifest.xlsx")
		opts := Options{Sheet: "Invoices"}
		if err := Write(path, sample, opts); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		got, err := Read(path, opts)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if diff := cmp.Diff(sample, got); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "manifest.txt")
		if err := Write(path, sample, Options{}); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Write() error = %v, want ErrUnsupportedFormat", err)
		}
		if _, err := Read(path, Options{}); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Read() error = %v, want ErrUnsupportedFormat", err)
		}
	})
}

func TestReadCSV(t *testing.T) {
	t.Run("columns in any order", func(t *testing.T) {
		in := "\ufeffVoucher Num,Notes,File Name,Invoice Num\n" +
			"V-1,ignored,a.pdf,1234.0\n" +
			",,,\n" +
			"nan,,b.pdf,INV2\n"
		got, err := ReadCSV(strings.NewReader(in))
		if err != nil {
			t.Fatalf("ReadCSV() error = %v", err)
		}
		want := []Record{
			{FileName: "a.pdf", InvoiceNum: "1234", VoucherNum: "V-1"},
			{FileName: "b.pdf", InvoiceNum: "INV2"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("short rows", func(t *testing.T) {
		in := "File Name,Invoice Num,Voucher Num\na.pdf,INV1\n"
		got, err := ReadCSV(strings.NewReader(in))
		if err != nil {
			t.Fatalf("ReadCSV() error = %v", err)
		}
		want := []Record{{FileName: "a.pdf", InvoiceNum: "INV1"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing column", func(t *testing.T) {
		in := "File Name,Voucher Num\na.pdf,V\n"
		if _, err := ReadCSV(strings.NewReader(in)); !errors.Is(err, ErrMissingColumn) {
			t.Errorf("ReadCSV() error = %v, want ErrMissingColumn", err)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if _, err := ReadCSV(strings.NewReader("")); !errors.Is(err, ErrMissingColumn) {
			t.Errorf("ReadCSV() error = %v, want ErrMissingColumn", err)
		}
	})
}

func TestReadJSON(t *testing.T) {
	t.Run("numbers and nulls", func(t *testing.T) {
		in := `[
			{"file_name": "a.pdf", "invoice_num": 1234, "voucher_num": null},
			{"file_name": "b.pdf", "invoice_num": "INV2", "voucher_num": 5678.0}
		]`
		got, err := ReadJSON([]byte(in))
		if err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		want := []Record{
			{FileName: "a.pdf", InvoiceNum: "1234"},
			{FileName: "b.pdf", InvoiceNum: "INV2", VoucherNum: "5678"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	tests := []struct {
		name string
		in   string
	}{
		{"not an array", `{"file_name": "a.pdf"}`},
		{"missing invoice", `[{"file_name": "a.pdf"}]`},
		{"empty file name", `[{"file_name": "", "invoice_num": "1"}]`},
		{"object voucher", `[{"file_name": "a.pdf", "invoice_num": "1", "voucher_num": {}}]`},
		{"malformed", `[{"file_name": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadJSON([]byte(tt.in)); err == nil {
				t.Error("ReadJSON() succeeded, want error")
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "A.PDF", "notes.txt", "c.pdf.bak"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "folder.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := Generate(dir)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	want := []Record{
		{FileName: "A.PDF", InvoiceNum: "A"},
		{FileName: "b.pdf", InvoiceNum: "b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	t.Run("no pdfs", func(t *testing.T) {
		if _, err := Generate(t.TempDir()); !errors.Is(err, ErrNoPDFs) {
			t.Errorf("Generate() error = %v, want ErrNoPDFs", err)
		}
	})
}
