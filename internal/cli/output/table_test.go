package output

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"
)

type fileRow struct {
	Name    string `json:"name"`
	Records int    `json:"records"`
	Size    int64  `json:"size" table:"bytes"`
	RunID   string `json:"run_id" table:"wide"`
	Salt    []byte `json:"-" table:"-"`
	hidden  string
}

func render(t *testing.T, f *TableFormatter, data any) string {
	t.Helper()
	var buf bytes.Buffer
	if err := f.Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	return buf.String()
}

func TestTableFormatter_Table(t *testing.T) {
	table := &Table{Headers: []string{"NAME", "VALUE"}, Rows: [][]string{{"key1", "value1"}}}

	out := render(t, &TableFormatter{}, table)
	if !strings.Contains(out, "NAME") || !strings.Contains(out, "key1") {
		t.Errorf("Format() = %q, want header and row", out)
	}
	out = render(t, &TableFormatter{NoHeaders: true}, *table)
	if strings.Contains(out, "NAME") {
		t.Error("Format() should not contain headers when NoHeaders=true")
	}
}

func TestTableFormatter_Slice(t *testing.T) {
	rows := []*fileRow{
		{Name: "instances.spsf", Records: 3, Size: 1536, RunID: "01A", hidden: "x"},
		nil,
		{Name: "z0.spsf", Records: 9, Size: 10},
	}

	out := render(t, &TableFormatter{}, rows)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "RECORDS") || strings.Contains(lines[0], "RUN_ID") || strings.Contains(lines[0], "SALT") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "1.5 KiB") {
		t.Errorf("row = %q, want size rendered as bytes", lines[1])
	}

	wide := render(t, &TableFormatter{Wide: true}, rows)
	if !strings.Contains(wide, "RUN_ID") || !strings.Contains(wide, "01A") {
		t.Errorf("wide output missing run_id column:\n%s", wide)
	}
}

func TestTableFormatter_Struct(t *testing.T) {
	out := render(t, &TableFormatter{}, sampleSummary())
	for _, want := range []string{"FIELD", "run_id", "01J0000000000000000000TEST", "1.5s", "2026-01-02"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestTableFormatter_MapSorted(t *testing.T) {
	out := render(t, &TableFormatter{}, map[string]int{"b": 2, "a": 1, "c": 3})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 || !strings.HasPrefix(lines[1], "a") || !strings.HasPrefix(lines[3], "c") {
		t.Errorf("map rows not sorted:\n%s", out)
	}
}

func TestTableFormatter_Scalars(t *testing.T) {
	out := render(t, &TableFormatter{}, []string{"ping", "save_world_save"})
	if !strings.Contains(out, "VALUE") || !strings.Contains(out, "save_world_save") {
		t.Errorf("Format() = %q", out)
	}
	if out := render(t, &TableFormatter{}, nil); out != "" {
		t.Errorf("Format(nil) = %q, want empty", out)
	}
	if out := render(t, &TableFormatter{}, 42); strings.TrimSpace(out) != "42" {
		t.Errorf("Format(42) = %q, want JSON fallback", out)
	}
}

func TestFormatValue(t *testing.T) {
	var nilPtr *int
	tests := []struct {
		in   any
		want string
	}{
		{"", "-"},
		{"x", "x"},
		{int64(-3), "-3"},
		{uint8(7), "7"},
		{1.5, "1.50"},
		{true, "true"},
		{[]int{}, "-"},
		{[]int{1, 2}, "[2 items]"},
		{map[string]int{"a": 1}, "{1 keys}"},
		{nilPtr, ""},
		{time.Time{}, "-"},
		{2*time.Second + 4*time.Microsecond, "2s"},
	}
	for _, tt := range tests {
		if got := formatValue(reflect.ValueOf(tt.in)); got != tt.want {
			t.Errorf("formatValue(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := formatValue(reflect.Value{}); got != "" {
		t.Errorf("formatValue(invalid) = %q, want empty", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"RunID", "run_i_d"},
		{"Layers", "layers"},
		{"BackupPath", "backup_path"},
	}
	for _, tt := range tests {
		if got := toSnakeCase(tt.in); got != tt.want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTable_AddRowSetHeaders(t *testing.T) {
	var table Table
	table.SetHeaders("A", "B")
	table.AddRow("1", "2")

	var buf bytes.Buffer
	if err := table.Render(&buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "A  B") || !strings.Contains(buf.String(), "1  2") {
		t.Errorf("Render() = %q", buf.String())
	}
}
