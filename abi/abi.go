// Package abi describes contract entry points and generates the handlers
// that decode call parameters into them.
package abi

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ContextType is the parameter type the host fills in with the execution context.
const ContextType = "core.Context"

// ABI represents the Application Binary Interface of a contract
type ABI struct {
	PackageName string     `json:"package_name,omitempty"`
	Functions   []Function `json:"functions,omitempty"`
	Events      []Event    `json:"events,omitempty"`
}

// Function represents a function in the contract
type Function struct {
	Name       string      `json:"name,omitempty"`
	EntryPoint string      `json:"entry_point,omitempty"`
	Inputs     []Parameter `json:"inputs,omitempty"`
	Outputs    []Parameter `json:"outputs,omitempty"`
	IsExported bool        `json:"is_exported,omitempty"`
}

// Event represents a contract event (from core.Context.Log calls)
type Event struct {
	Name       string      `json:"name,omitempty"`
	Parameters []Parameter `json:"parameters,omitempty"`
}

// Parameter represents a function parameter or event field
type Parameter struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}

// EntryPointName returns the name a function is invoked by: the Go name
// with its first letter lower-cased.
func EntryPointName(name string) string {
	if name == "" {
		return ""
	}
	return cases.Lower(language.Und).String(name[:1]) + name[1:]
}

// ExtractABI extracts the ABI information from contract code
func ExtractABI(code []byte) (*ABI, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", code, parser.AllErrors)
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract: %w", err)
	}

	abi := &ABI{
		PackageName: file.Name.Name,
		Functions:   make([]Function, 0),
		Events:      make([]Event, 0),
	}

	for _, decl := range file.Decls {
		funcDecl, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		// Skip methods and unexported functions
		if funcDecl.Recv != nil || !funcDecl.Name.IsExported() {
			continue
		}

		function := Function{
			Name:       funcDecl.Name.Name,
			EntryPoint: EntryPointName(funcDecl.Name.Name),
			IsExported: true,
		}
		if funcDecl.Type.Params != nil {
			function.Inputs = extractParameters(funcDecl.Type.Params)
		}
		if funcDecl.Type.Results != nil {
			function.Outputs = extractParameters(funcDecl.Type.Results)
		}

		abi.Events = append(abi.Events, extractEventsFromFunction(funcDecl)...)
		abi.Functions = append(abi.Functions, function)
	}

	return abi, nil
}

// Function looks a function up by Go name or entry point name.
func (abi *ABI) Function(name string) (Function, bool) {
	for _, fn := range abi.Functions {
		if fn.Name == name || fn.EntryPoint == name {
			return fn, true
		}
	}
	return Function{}, false
}

// CallInputs returns the inputs a caller supplies, without the leading
// execution context.
func (fn Function) CallInputs() []Parameter {
	if len(fn.Inputs) > 0 && fn.Inputs[0].Type == ContextType {
		return fn.Inputs[1:]
	}
	return fn.Inputs
}

// extractEventsFromFunction extracts events from ctx.Log calls in a function body
func extractEventsFromFunction(funcDecl *ast.FuncDecl) []Event {
	events := make([]Event, 0)
	if funcDecl.Body == nil {
		return events
	}

	ast.Inspect(funcDecl.Body, func(node ast.Node) bool {
		callExpr, ok := node.(*ast.CallExpr)
		if !ok {
			return true
		}
		selExpr, ok := callExpr.Fun.(*ast.SelectorExpr)
		if !ok || selExpr.Sel.Name != "Log" || len(callExpr.Args) < 1 {
			return true
		}

		// First argument is the event name
		eventName, ok := callExpr.Args[0].(*ast.BasicLit)
		if !ok || eventName.Kind != token.STRING {
			return true
		}

		event := Event{
			Name:       strings.Trim(eventName.Value, "\""),
			Parameters: make([]Parameter, 0),
		}

		// key-value pairs
		for i := 1; i+1 < len(callExpr.Args); i += 2 {
			key, ok := callExpr.Args[i].(*ast.BasicLit)
			if !ok || key.Kind != token.STRING {
				continue
			}
			event.Parameters = append(event.Parameters, Parameter{
				Name: strings.Trim(key.Value, "\""),
			})
		}

		if len(event.Parameters) > 0 {
			events = append(events, event)
		}
		return true
	})

	return events
}

// extractParameters extracts parameter information from a field list
func extractParameters(fieldList *ast.FieldList) []Parameter {
	if fieldList == nil {
		return nil
	}

	params := make([]Parameter, 0)
	for _, field := range fieldList.List {
		typeStr := getTypeString(field.Type)
		if len(field.Names) == 0 {
			params = append(params, Parameter{Type: typeStr})
			continue
		}
		for _, name := range field.Names {
			params = append(params, Parameter{
				Name: name.Name,
				Type: typeStr,
			})
		}
	}

	return params
}

// getTypeString converts an ast.Expr to its string representation
func getTypeString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + getTypeString(t.X)
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + getTypeString(t.Elt)
		}
		if lit, ok := t.Len.(*ast.BasicLit); ok {
			return fmt.Sprintf("[%s]%s", lit.Value, getTypeString(t.Elt))
		}
		return "[...]" + getTypeString(t.Elt)
	case *ast.SelectorExpr:
		return fmt.Sprintf("%s.%s", getTypeString(t.X), t.Sel.Name)
	case *ast.MapType:
		return fmt.Sprintf("map[%s]%s", getTypeString(t.Key), getTypeString(t.Value))
	case *ast.Ellipsis:
		return "..." + getTypeString(t.Elt)
	case *ast.InterfaceType:
		return "interface{}"
	case *ast.StructType:
		return "struct{}"
	default:
		return fmt.Sprintf("%T", t)
	}
}

// String returns a string representation of the ABI
func (abi *ABI) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Package: %s\n", abi.PackageName))

	sb.WriteString("\nFunctions:\n")
	for _, fn := range abi.Functions {
		sb.WriteString(fmt.Sprintf("  %s(", fn.EntryPoint))
		for i, input := range fn.CallInputs() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strings.TrimSpace(input.Name + " " + input.Type))
		}
		sb.WriteString(")")

		switch len(fn.Outputs) {
		case 0:
		case 1:
			sb.WriteString(" " + fn.Outputs[0].Type)
		default:
			outputs := make([]string, 0, len(fn.Outputs))
			for _, output := range fn.Outputs {
				outputs = append(outputs, strings.TrimSpace(output.Name+" "+output.Type))
			}
			sb.WriteString(" (" + strings.Join(outputs, ", ") + ")")
		}
		sb.WriteString("\n")
	}

	if len(abi.Events) > 0 {
		sb.WriteString("\nEvents:\n")
		for _, event := range abi.Events {
			names := make([]string, 0, len(event.Parameters))
			for _, param := range event.Parameters {
				names = append(names, param.Name)
			}
			sb.WriteString(fmt.Sprintf("  %s(%s)\n", event.Name, strings.Join(names, ", ")))
		}
	}

	return sb.String()
}
