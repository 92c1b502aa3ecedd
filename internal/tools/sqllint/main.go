// Command sqllint walks Go sources and reports inline SQL constants whose
// first line is not a "--sql <uuid>" audit marker. The marker convention is
// what lets slow-query logs be traced back to the constant that produced
// them, so a missing marker fails the build.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	sqlKeyword  = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with)\b`)
	auditMarker = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

type finding struct {
	pos   token.Position
	ident string
}

func (f finding) String() string {
	return fmt.Sprintf("%s:%d: const %s looks like SQL but lacks an audit marker", f.pos.Filename, f.pos.Line, f.ident)
}

func main() {
	flag.Parse()
	roots := flag.Args()
	if len(roots) == 0 {
		roots = []string{"."}
	}

	findings, err := run(roots)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
		os.Exit(1)
	}
	if len(findings) > 0 {
		for _, f := range findings {
			fmt.Fprintln(os.Stderr, f)
		}
		fmt.Fprintf(os.Stderr, "sqllint: %d unmarked SQL constant(s)\n", len(findings))
		os.Exit(1)
	}
}

func run(roots []string) ([]finding, error) {
	var files []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if strings.HasSuffix(root, ".go") {
				files = append(files, root)
			}
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if strings.HasPrefix(name, ".") || name == "vendor" || name == "node_modules" {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, ".go") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	var findings []finding
	fset := token.NewFileSet()
	for _, path := range files {
		perFile, err := checkFile(fset, path)
		if err != nil {
			return nil, err
		}
		findings = append(findings, perFile...)
	}
	return findings, nil
}

func checkFile(fset *token.FileSet, path string) ([]finding, error) {
	file, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		return nil, err
	}

	var findings []finding
	ast.Inspect(file, func(n ast.Node) bool {
		spec, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for i, value := range spec.Values {
			lit, ok := value.(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				continue
			}
			text := literalText(lit.Value)
			if !sqlKeyword.MatchString(text) {
				continue
			}
			if auditMarker.MatchString(headerLine(text)) {
				continue
			}
			ident := "_"
			if i < len(spec.Names) && spec.Names[i] != nil {
				ident = spec.Names[i].Name
			}
			findings = append(findings, finding{pos: fset.Position(lit.Pos()), ident: ident})
		}
		return true
	})
	return findings, nil
}

// headerLine returns the first non-empty line of a SQL constant, which is
// where the audit marker must sit.
func headerLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

func literalText(quoted string) string {
	if len(quoted) >= 2 && quoted[0] == '`' {
		return quoted[1 : len(quoted)-1]
	}
	s, err := strconv.Unquote(quoted)
	if err != nil {
		return ""
	}
	return s
}
