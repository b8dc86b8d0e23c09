// Package validator checks contract source before it is deployed.
package validator

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
)

var ErrInvalidContract = errors.New("invalid contract")

// Config defines the rules contract source must satisfy
type Config struct {
	// MaxCodeSize is the maximum size of contract source in bytes
	MaxCodeSize uint64

	// AllowedImports contains the packages that can be imported by contracts
	AllowedImports []string
}

// DefaultConfig only lets contracts import the core package.
func DefaultConfig() Config {
	return Config{
		MaxCodeSize: 1024 * 1024, // 1MB
		AllowedImports: []string{
			"github.com/govm-net/greeter/core",
		},
	}
}

// RestrictedCommentPrefixes are matched against every comment line after
// the comment marker and surrounding space are removed.
var RestrictedCommentPrefixes = []string{
	"go ",
	"go:",
	"+build",
	"-build",
}

// RestrictedDirectives are only matched directly after "//", the form the
// toolchain reads them in.
var RestrictedDirectives = []string{
	"line",
	"export",
	"extern",
	"cgo",
}

// Validator handles the validation of contract source.
type Validator struct {
	config Config
}

func New(config Config) *Validator {
	return &Validator{config: config}
}

// ValidateContract checks if the contract source adheres to the
// restrictions and rules of the host.
func (v *Validator) ValidateContract(code []byte) error {
	if uint64(len(code)) > v.config.MaxCodeSize {
		return fmt.Errorf("%w: size %d exceeds maximum allowed size of %d bytes", ErrInvalidContract, len(code), v.config.MaxCodeSize)
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", code, parser.AllErrors|parser.ParseComments)
	if err != nil {
		return fmt.Errorf("%w: failed to parse contract: %w", ErrInvalidContract, err)
	}

	if err := v.validateImports(file); err != nil {
		return err
	}
	if err := validateNoRestrictedKeywords(file); err != nil {
		return err
	}
	if err := validateNoRestrictedComments(fset, file); err != nil {
		return err
	}

	for _, decl := range file.Decls {
		if funcDecl, ok := decl.(*ast.FuncDecl); ok && funcDecl.Recv == nil && funcDecl.Name.IsExported() {
			return nil
		}
	}
	return fmt.Errorf("%w: contract must have at least one exported function", ErrInvalidContract)
}

// validateImports checks that the contract only imports allowed packages.
func (v *Validator) validateImports(file *ast.File) error {
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		if imp.Name != nil && imp.Name.Name == "_" {
			return fmt.Errorf("%w: blank import %s is not allowed", ErrInvalidContract, importPath)
		}

		allowed := false
		for _, allowedImport := range v.config.AllowedImports {
			if importPath == allowedImport || strings.HasPrefix(importPath, allowedImport+"/") {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: import %s is not allowed", ErrInvalidContract, importPath)
		}
	}
	return nil
}

// validateNoRestrictedKeywords rejects goroutines, select and recover.
func validateNoRestrictedKeywords(file *ast.File) error {
	var found string
	ast.Inspect(file, func(node ast.Node) bool {
		if found != "" {
			return false
		}
		switch n := node.(type) {
		case *ast.GoStmt:
			found = "go"
		case *ast.SelectStmt:
			found = "select"
		case *ast.CallExpr:
			if ident, ok := n.Fun.(*ast.Ident); ok && ident.Name == "recover" {
				found = "recover"
			}
		}
		return found == ""
	})

	if found != "" {
		return fmt.Errorf("%w: restricted keyword '%s' found in contract", ErrInvalidContract, found)
	}
	return nil
}

// validateNoRestrictedComments rejects directives hidden in comments.
func validateNoRestrictedComments(fset *token.FileSet, file *ast.File) error {
	for _, group := range file.Comments {
		for _, comment := range group.List {
			line := fset.Position(comment.Pos()).Line
			for _, directive := range RestrictedDirectives {
				if strings.HasPrefix(comment.Text, "//"+directive) {
					return fmt.Errorf("%w: restricted directive '%s' found at line %d", ErrInvalidContract, directive, line)
				}
			}

			text := strings.TrimPrefix(comment.Text, "//")
			text = strings.TrimPrefix(text, "/*")
			text = strings.TrimSuffix(text, "*/")

			for _, content := range strings.Split(text, "\n") {
				content = strings.ToLower(strings.TrimSpace(content))
				if content == "" {
					continue
				}
				for _, prefix := range RestrictedCommentPrefixes {
					if strings.HasPrefix(content, prefix) {
						return fmt.Errorf("%w: restricted comment prefix '%s' found at line %d", ErrInvalidContract, prefix, line)
					}
				}
			}
		}
	}
	return nil
}
