// translationcheck lists CLI strings passed to T() that have no entry in the
// translations catalog.
//
//	go run ./scripts/translationcheck
package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/xerrors"
)

const (
	cliDir      = "cmd/localepatch"
	catalogFile = "cmd/localepatch/internal/translations/catalog.go"
)

type use struct {
	Format string
	Pos    token.Position
}

func main() {
	uses, err := extract(cliDir)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	have, err := catalogKeys(catalogFile)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}

	missing := lo.Filter(uses, func(u use, _ int) bool {
		_, ok := have[u.Format]
		return !ok
	})
	for _, u := range missing {
		fmt.Printf("%s:%d: missing translation for %q\n", u.Pos.Filename, u.Pos.Line, u.Format)
	}

	if len(missing) > 0 {
		fmt.Printf("\n%d of %d strings missing translations\n", len(missing), len(uses))
		os.Exit(1)
	}
	fmt.Printf("all %d strings translated\n", len(uses))
}

// extract collects the literal format strings of T(...) calls below dir.
func extract(dir string) ([]use, error) {
	var out []use
	seen := map[string]bool{}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "translations" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		fset := token.NewFileSet()
		file, err := parser.ParseFile(fset, path, nil, 0)
		if err != nil {
			return xerrors.Errorf("parse %s: %w", path, err)
		}

		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok || len(call.Args) == 0 || funcName(call) != "T" {
				return true
			}
			s, ok := stringLit(call.Args[0])
			if !ok || seen[s] {
				return true
			}
			seen[s] = true
			out = append(out, use{Format: s, Pos: fset.Position(call.Pos())})
			return true
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Format < out[j].Format })
	return out, nil
}

// catalogKeys returns the first element of every {"key", "translation"} pair
// in the catalog file.
func catalogKeys(path string) (map[string]struct{}, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		return nil, xerrors.Errorf("parse %s: %w", path, err)
	}

	keys := map[string]struct{}{}
	ast.Inspect(file, func(n ast.Node) bool {
		lit, ok := n.(*ast.CompositeLit)
		if !ok || len(lit.Elts) != 2 {
			return true
		}
		k, ok := stringLit(lit.Elts[0])
		if !ok {
			return true
		}
		if _, ok := stringLit(lit.Elts[1]); ok {
			keys[k] = struct{}{}
		}
		return true
	})
	return keys, nil
}

func funcName(call *ast.CallExpr) string {
	switch fn := call.Fun.(type) {
	case *ast.Ident:
		return fn.Name
	case *ast.SelectorExpr:
		return fn.Sel.Name
	}
	return ""
}

func stringLit(expr ast.Expr) (string, bool) {
	bl, ok := expr.(*ast.BasicLit)
	if !ok || bl.Kind != token.STRING {
		return "", false
	}
	s, err := strconv.Unquote(bl.Value)
	if err != nil {
		return "", false
	}
	return s, true
}
