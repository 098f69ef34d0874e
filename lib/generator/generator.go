// Package generator writes MergeProps implementations for component props
// structs marked with a //hxmount:props comment.
//
//	//hxmount:props
//	type CardProps struct {
//	    Title    string
//	    Collapse bool   `prop:"collapsed"`
//	    Cache    *Cache `prop:"-"`
//	}
//
// produces card_props.go with a MergeProps method that assigns the default
// property keys "title" and "collapsed" and rejects every other key.
package generator

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"unicode"
)

// Marker is the comment that selects a props struct.
const Marker = "//hxmount:props"

// Suffix is appended to the source file name of generated files.
const Suffix = "_props.go"

// Options configures the generator.
type Options struct {
	DryRun bool
}

// Generator generates hxmount code.
type Generator struct {
	opts Options
	fset *token.FileSet
}

// New creates a new generator.
func New(opts Options) *Generator {
	return &Generator{
		opts: opts,
		fset: token.NewFileSet(),
	}
}

// Generate generates code for the given package patterns.
func (g *Generator) Generate(patterns ...string) error {
	packages, err := g.findPackages(patterns)
	if err != nil {
		return err
	}

	for _, pkg := range packages {
		if err := g.generatePackage(pkg); err != nil {
			return fmt.Errorf("package %s: %w", pkg, err)
		}
	}

	return nil
}

// Clean removes generated files for the given package patterns.
func (g *Generator) Clean(patterns ...string) error {
	packages, err := g.findPackages(patterns)
	if err != nil {
		return err
	}

	for _, pkg := range packages {
		if err := g.cleanPackage(pkg); err != nil {
			return fmt.Errorf("package %s: %w", pkg, err)
		}
	}

	return nil
}

// findPackages resolves package patterns to directory paths.
func (g *Generator) findPackages(patterns []string) ([]string, error) {
	var packages []string

	for _, pattern := range patterns {
		if !strings.HasSuffix(pattern, "/...") {
			packages = append(packages, pattern)
			continue
		}

		root := strings.TrimSuffix(pattern, "/...")
		if root == "" {
			root = "."
		}
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			base := filepath.Base(path)
			if path != root && (strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_") || base == "vendor" || base == "testdata") {
				return filepath.SkipDir
			}

			entries, err := os.ReadDir(path)
			if err != nil {
				return nil
			}
			for _, entry := range entries {
				name := entry.Name()
				if !entry.IsDir() && strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") {
					packages = append(packages, path)
					break
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return packages, nil
}

// generatePackage generates code for a single package.
func (g *Generator) generatePackage(pkgPath string) error {
	entries, err := os.ReadDir(pkgPath)
	if err != nil {
		return err
	}

	byFile := make(map[string][]*PropsInfo)
	var pkgName string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") ||
			strings.HasSuffix(name, "_test.go") || strings.HasSuffix(name, Suffix) {
			continue
		}
		path := filepath.Join(pkgPath, name)
		file, err := parser.ParseFile(g.fset, path, nil, parser.ParseComments)
		if err != nil {
			return err
		}
		pkgName = file.Name.Name
		if found := g.FindProps(file); len(found) > 0 {
			byFile[path] = found
		}
	}

	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)
	for _, f := range files {
		if err := g.generateFile(pkgPath, pkgName, f, byFile[f]); err != nil {
			return err
		}
	}
	return nil
}

// cleanPackage removes generated files from a package.
func (g *Generator) cleanPackage(pkgPath string) error {
	entries, err := os.ReadDir(pkgPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Suffix) {
			continue
		}
		path := filepath.Join(pkgPath, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		// Only remove files this generator wrote.
		if !strings.HasPrefix(string(data), header) {
			continue
		}
		fmt.Printf("removing %s\n", path)
		if !g.opts.DryRun {
			if err := os.Remove(path); err != nil {
				return err
			}
		}
	}

	return nil
}

// PropsInfo describes a marked props struct.
type PropsInfo struct {
	TypeName string
	Fields   []PropField
}

// PropField is one assignable field of a props struct.
type PropField struct {
	Name string // Go field name
	Type string // Go type
	Key  string // default property key
}

// FindProps returns the marked props structs of file.
func (g *Generator) FindProps(file *ast.File) []*PropsInfo {
	var out []*PropsInfo

	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}

		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			structType, ok := typeSpec.Type.(*ast.StructType)
			if !ok {
				continue
			}
			// A lone type declaration carries its doc on the GenDecl.
			doc := typeSpec.Doc
			if doc == nil && len(genDecl.Specs) == 1 {
				doc = genDecl.Doc
			}
			if !hasMarker(doc) {
				continue
			}

			out = append(out, &PropsInfo{
				TypeName: typeSpec.Name.Name,
				Fields:   g.propFields(structType),
			})
		}
	}

	return out
}

func hasMarker(doc *ast.CommentGroup) bool {
	if doc == nil {
		return false
	}
	for _, c := range doc.List {
		if strings.TrimSpace(c.Text) == Marker {
			return true
		}
	}
	return false
}

func (g *Generator) propFields(structType *ast.StructType) []PropField {
	var fields []PropField

	for _, field := range structType.Fields.List {
		if len(field.Names) == 0 {
			continue
		}
		typ := g.typeToString(field.Type)
		if converterFor(typ) == "" {
			continue
		}

		var tagKey string
		if field.Tag != nil {
			tag := reflect.StructTag(strings.Trim(field.Tag.Value, "`"))
			tagKey = tag.Get("prop")
		}
		if tagKey == "-" {
			continue
		}

		for _, name := range field.Names {
			if !name.IsExported() {
				continue
			}
			key := tagKey
			if key == "" {
				key = lowerFirst(name.Name)
			}
			fields = append(fields, PropField{Name: name.Name, Type: typ, Key: key})
		}
	}

	return fields
}

// typeToString converts an AST type to a string representation.
func (g *Generator) typeToString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + g.typeToString(t.X)
	case *ast.SelectorExpr:
		return g.typeToString(t.X) + "." + t.Sel.Name
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + g.typeToString(t.Elt)
		}
		return "[...]" + g.typeToString(t.Elt)
	case *ast.MapType:
		return "map[" + g.typeToString(t.Key) + "]" + g.typeToString(t.Value)
	default:
		return fmt.Sprintf("%T", expr)
	}
}

// lowerFirst converts "MaxItems" to "maxItems" and "ID" to "id".
func lowerFirst(s string) string {
	runes := []rune(s)
	i := 0
	for i < len(runes) && unicode.IsUpper(runes[i]) {
		i++
	}
	switch {
	case i == 0:
		return s
	case i == len(runes):
		return strings.ToLower(s)
	case i > 1:
		// "URLPath" -> "urlPath"
		i--
	}
	return strings.ToLower(string(runes[:i])) + string(runes[i:])
}
