package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/muesli/termenv"
)

// Formatter is the interface for output formatting
type Formatter interface {
	Print(data any) error
	PrintList(items any, columns []Column) error
	PrintError(err error)
	PrintHint(msg string)
}

// Column defines a column for table/list output
type Column struct {
	Name  string // Display name
	Key   string // Struct field name or map key
	Width int    // Width for rich mode (0 = auto)
}

// New creates a formatter for the specified mode writing to stdout/stderr
func New(mode string) Formatter {
	return NewWithWriters(mode, os.Stdout, os.Stderr)
}

// NewWithWriters creates a formatter writing data to out and diagnostics to errOut
func NewWithWriters(mode string, out, errOut io.Writer) Formatter {
	switch mode {
	case "json":
		return &jsonFormatter{out: out, errOut: errOut}
	case "rich":
		profile := termenv.ColorProfile()
		return &richFormatter{profile: profile, out: out, errOut: errOut}
	default:
		return &plainFormatter{out: out, errOut: errOut}
	}
}

// jsonFormatter outputs JSON
type jsonFormatter struct {
	out    io.Writer
	errOut io.Writer
}

func (f *jsonFormatter) Print(data any) error {
	enc := json.NewEncoder(f.out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (f *jsonFormatter) PrintList(items any, columns []Column) error {
	// Wrap in envelope with metadata
	v := reflect.ValueOf(items)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	count := 0
	if v.Kind() == reflect.Slice {
		count = v.Len()
	}

	envelope := map[string]any{
		"data":  items,
		"count": count,
	}

	return f.Print(envelope)
}

func (f *jsonFormatter) PrintError(err error) {
	errObj := map[string]string{"error": err.Error()}
	enc := json.NewEncoder(f.errOut)
	enc.SetIndent("", "  ")
	enc.Encode(errObj)
}

func (f *jsonFormatter) PrintHint(msg string) {
	// Hints are for humans; JSON consumers get the error object only
}

// fields flattens a struct or string map into ordered key/value pairs.
// ok is false for any other kind of value.
func fields(data any) (pairs [][2]string, ok bool) {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			pairs = append(pairs, [2]string{t.Field(i).Name, fmt.Sprintf("%v", v.Field(i).Interface())})
		}
		return pairs, true
	case reflect.Map:
		keys := make([]string, 0, v.Len())
		for _, k := range v.MapKeys() {
			keys = append(keys, fmt.Sprintf("%v", k.Interface()))
		}
		slices.Sort(keys)
		for _, k := range keys {
			pairs = append(pairs, [2]string{k, fmt.Sprintf("%v", v.MapIndex(reflect.ValueOf(k)).Interface())})
		}
		return pairs, true
	default:
		return nil, false
	}
}

// cell reads the column value from a struct field or map entry
func cell(item reflect.Value, col Column) string {
	if item.Kind() == reflect.Ptr {
		item = item.Elem()
	}
	if item.Kind() == reflect.Map {
		mapVal := item.MapIndex(reflect.ValueOf(col.Key))
		if mapVal.IsValid() {
			return fmt.Sprintf("%v", mapVal.Interface())
		}
	} else if item.Kind() == reflect.Struct {
		field := item.FieldByName(col.Key)
		if field.IsValid() {
			return fmt.Sprintf("%v", field.Interface())
		}
	}
	return ""
}

// plainFormatter outputs tab-separated values
type plainFormatter struct {
	out    io.Writer
	errOut io.Writer
}

func (f *plainFormatter) Print(data any) error {
	pairs, ok := fields(data)
	if !ok {
		// For other types, just print the value
		fmt.Fprintf(f.out, "%v\n", data)
		return nil
	}
	for _, p := range pairs {
		fmt.Fprintf(f.out, "%s\t%s\n", p[0], p[1])
	}
	return nil
}

func (f *plainFormatter) PrintList(items any, columns []Column) error {
	v := reflect.ValueOf(items)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Slice {
		return fmt.Errorf("PrintList requires a slice")
	}

	// Print header
	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.Name
	}
	fmt.Fprintf(f.out, "%s\n", strings.Join(headers, "\t"))

	// Print rows
	for i := 0; i < v.Len(); i++ {
		values := make([]string, len(columns))
		for j, col := range columns {
			values[j] = cell(v.Index(i), col)
		}
		fmt.Fprintf(f.out, "%s\n", strings.Join(values, "\t"))
	}

	return nil
}

func (f *plainFormatter) PrintError(err error) {
	fmt.Fprintf(f.errOut, "error: %v\n", err)
}

func (f *plainFormatter) PrintHint(msg string) {
	fmt.Fprintf(f.errOut, "hint: %v\n", msg)
}

// richFormatter outputs styled content for terminal
type richFormatter struct {
	profile termenv.Profile
	out     io.Writer
	errOut  io.Writer
}

func (f *richFormatter) Print(data any) error {
	pairs, ok := fields(data)
	if !ok {
		fmt.Fprintf(f.out, "%v\n", data)
		return nil
	}

	keyStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	for _, p := range pairs {
		fmt.Fprintf(f.out, "%s: %s\n", f.render(keyStyle, p[0]), f.render(valueStyle, p[1]))
	}
	return nil
}

// render applies style unless the terminal has no color support
func (f *richFormatter) render(style lipgloss.Style, s string) string {
	if f.profile == termenv.Ascii {
		return s
	}
	return style.Render(s)
}

func (f *richFormatter) PrintList(items any, columns []Column) error {
	v := reflect.ValueOf(items)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Slice {
		return fmt.Errorf("PrintList requires a slice")
	}

	// Convert to map format for table rendering
	rows := make([]map[string]string, v.Len())
	for i := 0; i < v.Len(); i++ {
		row := make(map[string]string)
		for _, col := range columns {
			row[col.Key] = cell(v.Index(i), col)
		}
		rows[i] = row
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Underline(true)
	RenderTable(f.out, columns, rows, func(s string) string { return f.render(headerStyle, s) })
	return nil
}

func (f *richFormatter) PrintError(err error) {
	errorStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("9"))

	fmt.Fprintf(f.errOut, "%s\n", f.render(errorStyle, "error: "+err.Error()))
}

func (f *richFormatter) PrintHint(msg string) {
	hintStyle := lipgloss.NewStyle().
		Faint(true).
		Foreground(lipgloss.Color("8"))

	fmt.Fprintf(f.errOut, "%s\n", f.render(hintStyle, "hint: "+msg))
}
