package generator

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

const header = "// Code generated by hxmount. DO NOT EDIT."

// generateFile writes the *_props.go file for the props structs of one
// source file.
func (g *Generator) generateFile(pkgPath, pkgName, sourceFile string, props []*PropsInfo) error {
	baseName := strings.TrimSuffix(filepath.Base(sourceFile), ".go")
	outputFile := filepath.Join(pkgPath, baseName+Suffix)

	fmt.Printf("generating %s\n", outputFile)

	if g.opts.DryRun {
		return nil
	}

	code, err := g.Render(pkgName, props)
	if err != nil {
		return err
	}
	return os.WriteFile(outputFile, code, 0644)
}

// Render returns the formatted source of the MergeProps methods of props.
func (g *Generator) Render(pkgName string, props []*PropsInfo) ([]byte, error) {
	tmpl, err := template.New("props").Funcs(template.FuncMap{
		"assign": assignFieldCode,
	}).Parse(propsTemplate)
	if err != nil {
		return nil, err
	}

	data := struct {
		Header  string
		Package string
		Props   []*PropsInfo
	}{
		Header:  header,
		Package: pkgName,
		Props:   props,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format source: %w", err)
	}
	return formatted, nil
}

// converterFor returns the hxmount converter assigning values of typ, empty
// when the type is not supported.
func converterFor(typ string) string {
	switch typ {
	case "string":
		return "PropString"
	case "bool":
		return "PropBool"
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64":
		return "PropInt"
	case "float32", "float64":
		return "PropFloat"
	case "[]string":
		return "PropStrings"
	default:
		return ""
	}
}

// assignFieldCode generates the case body assigning one field.
func assignFieldCode(f PropField) string {
	conv := converterFor(f.Type)
	value := "x"
	switch f.Type {
	case "int", "string", "bool", "float64", "[]string":
	default:
		value = f.Type + "(x)"
	}
	return fmt.Sprintf(`if x, ok := hxmount.%s(v); ok {
	p.%s = %s
} else {
	rejected = append(rejected, key)
}`, conv, f.Name, value)
}

const propsTemplate = `{{.Header}}

package {{.Package}}

import "github.com/pthm/hxmount"
{{range .Props}}
// MergeProps implements hxmount.PropsMerger.
func (p *{{.TypeName}}) MergeProps(bag hxmount.Props, isSet func(key string) bool) (rejected []string) {
	for _, key := range bag.Keys() {
		if isSet(key) {
			continue
		}
		{{- if .Fields}}
		v := bag[key]
		switch key {
		{{- range .Fields}}
		case "{{.Key}}":
			{{assign .}}
		{{- end}}
		default:
			rejected = append(rejected, key)
		}
		{{- else}}
		rejected = append(rejected, key)
		{{- end}}
	}
	return rejected
}
{{end}}`
