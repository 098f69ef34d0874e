package generator

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const cardSource = `package card

import "time"

//hxmount:props
type CardProps struct {
	Title     string
	Collapsed bool     ` + "`prop:\"collapse\"`" + `
	MaxItems  int
	Ratio     float32
	Tags      []string
	URLPath   string
	Created   time.Time
	Cache     map[string]string
	Secret    string   ` + "`prop:\"-\"`" + `
	internal  string
}

type Unmarked struct {
	Title string
}
`

func parseSource(t *testing.T, src string) []*PropsInfo {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "card.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("Failed to parse code: %v", err)
	}
	return New(Options{}).FindProps(file)
}

func TestFindProps(t *testing.T) {
	props := parseSource(t, cardSource)
	if len(props) != 1 {
		t.Fatalf("FindProps() found %d structs, want 1", len(props))
	}
	if props[0].TypeName != "CardProps" {
		t.Errorf("TypeName = %q, want CardProps", props[0].TypeName)
	}

	want := map[string]string{
		"Title":     "title",
		"Collapsed": "collapse",
		"MaxItems":  "maxItems",
		"Ratio":     "ratio",
		"Tags":      "tags",
		"URLPath":   "urlPath",
	}
	got := make(map[string]string)
	for _, f := range props[0].Fields {
		got[f.Name] = f.Key
	}
	if len(got) != len(want) {
		t.Errorf("fields = %v, want %v", got, want)
	}
	for name, key := range want {
		if got[name] != key {
			t.Errorf("field %s key = %q, want %q", name, got[name], key)
		}
	}
}

func TestFindPropsIgnoresUnmarked(t *testing.T) {
	props := parseSource(t, `package card

// CardProps is documented but not marked.
type CardProps struct {
	Title string
}
`)
	if len(props) != 0 {
		t.Errorf("FindProps() found %d structs, want 0", len(props))
	}
}

func TestLowerFirst(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Title", "title"},
		{"MaxItems", "maxItems"},
		{"ID", "id"},
		{"URLPath", "urlPath"},
		{"already", "already"},
	}
	for _, tt := range tests {
		if got := lowerFirst(tt.in); got != tt.want {
			t.Errorf("lowerFirst(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	props := parseSource(t, cardSource)
	code, err := New(Options{}).Render("card", props)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	src := string(code)

	for _, want := range []string{
		header,
		"package card",
		"func (p *CardProps) MergeProps(bag hxmount.Props, isSet func(key string) bool) (rejected []string)",
		`case "collapse":`,
		"hxmount.PropBool(v)",
		"p.Ratio = float32(x)",
		"hxmount.PropStrings(v)",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("generated code missing %q\n%s", want, src)
		}
	}
	if strings.Contains(src, "Secret") || strings.Contains(src, "Created") {
		t.Errorf("generated code assigns excluded fields:\n%s", src)
	}

	// The generated file must parse.
	if _, err := parser.ParseFile(token.NewFileSet(), "card_props.go", code, 0); err != nil {
		t.Errorf("generated code does not parse: %v", err)
	}
}

func TestGenerateAndClean(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "card.go"), []byte(cardSource), 0644); err != nil {
		t.Fatal(err)
	}
	// A hand-written file with the suffix must survive Clean.
	manual := filepath.Join(dir, "manual_props.go")
	if err := os.WriteFile(manual, []byte("package card\n"), 0644); err != nil {
		t.Fatal(err)
	}

	g := New(Options{})
	if err := g.Generate(dir); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	generated := filepath.Join(dir, "card"+Suffix)
	if _, err := os.Stat(generated); err != nil {
		t.Fatalf("expected %s: %v", generated, err)
	}

	if err := g.Clean(dir); err != nil {
		t.Fatalf("Clean() error: %v", err)
	}
	if _, err := os.Stat(generated); !os.IsNotExist(err) {
		t.Errorf("Clean() left %s", generated)
	}
	if _, err := os.Stat(manual); err != nil {
		t.Errorf("Clean() removed a hand-written file: %v", err)
	}
}

func TestDryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "card.go"), []byte(cardSource), 0644); err != nil {
		t.Fatal(err)
	}
	if err := New(Options{DryRun: true}).Generate(dir); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "card"+Suffix)); !os.IsNotExist(err) {
		t.Error("dry run wrote a file")
	}
}
