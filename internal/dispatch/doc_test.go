package dispatch

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"
)

// Occurrence types and Dispatcher helpers are the surface the CRUD layer
// codes against; each carries a godoc line.
func TestExportedAPIDocumented(t *testing.T) {
	fset := token.NewFileSet()
	for _, file := range []string{"occurrence.go", "dispatcher.go"} {
		f, err := parser.ParseFile(fset, file, nil, parser.ParseComments)
		if err != nil {
			t.Fatalf("parsing %s: %v", file, err)
		}
		for _, decl := range f.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				// Kind and publish methods implement Occurrence.
				if !d.Name.IsExported() || d.Name.Name == "Kind" {
					continue
				}
				if d.Doc == nil {
					t.Errorf("%s: func %s has no doc comment", fset.Position(d.Pos()), d.Name.Name)
				}
			case *ast.GenDecl:
				if d.Tok != token.TYPE {
					continue
				}
				for _, spec := range d.Specs {
					ts := spec.(*ast.TypeSpec)
					if ts.Name.IsExported() && d.Doc == nil && ts.Doc == nil {
						t.Errorf("%s: type %s has no doc comment", fset.Position(ts.Pos()), ts.Name.Name)
					}
				}
			}
		}
	}
}
