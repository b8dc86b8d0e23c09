package abi

import (
	"fmt"
	"go/format"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CorePackage is the import path generated handlers use for core.Context.
const CorePackage = "github.com/govm-net/greeter/core"

// HandlerGenerator generates handler functions from ABI
type HandlerGenerator struct {
	abi   *ABI
	title cases.Caser
}

var EnableFormatAfterGenerate = true

// NewHandlerGenerator creates a new handler generator
func NewHandlerGenerator(abi *ABI) *HandlerGenerator {
	return &HandlerGenerator{
		abi:   abi,
		title: cases.Title(language.English),
	}
}

// GenerateHandlers generates handler functions for all exported functions
func (g *HandlerGenerator) GenerateHandlers() string {
	var sb strings.Builder

	sb.WriteString("// Code generated by greeter-cli gen-handlers. DO NOT EDIT.\n\n")
	sb.WriteString(fmt.Sprintf("package %s\n\n", g.abi.PackageName))
	sb.WriteString("import (\n")
	if g.needsDecoding() {
		sb.WriteString("\t\"encoding/json\"\n")
		sb.WriteString("\t\"fmt\"\n\n")
	}
	sb.WriteString(fmt.Sprintf("\t%q\n", CorePackage))
	sb.WriteString(")\n\n")

	sb.WriteString("func init() {\n")
	for _, fn := range g.exported() {
		sb.WriteString(fmt.Sprintf("\tregisterContractFunction(%q, handle%s)\n", EntryPointName(fn.Name), fn.Name))
	}
	sb.WriteString("}\n\n")

	for _, fn := range g.exported() {
		sb.WriteString(g.generateParamStruct(fn))
		sb.WriteString(g.generateHandler(fn))
	}

	return sb.String()
}

func (g *HandlerGenerator) exported() []Function {
	out := make([]Function, 0, len(g.abi.Functions))
	for _, fn := range g.abi.Functions {
		if fn.IsExported {
			out = append(out, fn)
		}
	}
	return out
}

func (g *HandlerGenerator) needsDecoding() bool {
	for _, fn := range g.exported() {
		if len(fn.CallInputs()) > 0 {
			return true
		}
	}
	return false
}

func (g *HandlerGenerator) fieldName(param Parameter) string {
	return g.title.String(param.Name)
}

// generateParamStruct generates a parameter struct for a function
func (g *HandlerGenerator) generateParamStruct(fn Function) string {
	inputs := fn.CallInputs()
	if len(inputs) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("type %sParams struct {\n", fn.Name))
	for _, input := range inputs {
		sb.WriteString(fmt.Sprintf("\t%s %s `json:\"%s,omitempty\"`\n",
			g.fieldName(input), input.Type, input.Name))
	}
	sb.WriteString("}\n\n")

	return sb.String()
}

// generateHandler generates a handler function for a given function
func (g *HandlerGenerator) generateHandler(fn Function) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("func handle%s(ctx core.Context, params []byte) (any, error) {\n", fn.Name))

	if len(fn.CallInputs()) > 0 {
		sb.WriteString(fmt.Sprintf("\tvar args %sParams\n", fn.Name))
		sb.WriteString("\tif len(params) > 0 {\n")
		sb.WriteString("\t\tif err := json.Unmarshal(params, &args); err != nil {\n")
		sb.WriteString("\t\t\treturn nil, fmt.Errorf(\"failed to unmarshal params: %w\", err)\n")
		sb.WriteString("\t\t}\n")
		sb.WriteString("\t}\n\n")
	}

	// a trailing error result is returned as the handler error
	outputs := fn.Outputs
	hasErr := len(outputs) > 0 && outputs[len(outputs)-1].Type == "error"
	values := make([]string, 0, len(outputs))
	for i := range outputs {
		if hasErr && i == len(outputs)-1 {
			break
		}
		values = append(values, fmt.Sprintf("result%d", i))
	}

	sb.WriteString("\t")
	if len(outputs) > 0 {
		names := values
		if hasErr {
			names = append(append([]string{}, values...), "err")
		}
		sb.WriteString(strings.Join(names, ", "))
		sb.WriteString(" := ")
	}

	args := make([]string, 0, len(fn.Inputs))
	for _, input := range fn.Inputs {
		if input.Type == ContextType {
			args = append(args, "ctx")
		} else {
			args = append(args, "args."+g.fieldName(input))
		}
	}
	sb.WriteString(fmt.Sprintf("%s(%s)\n\n", fn.Name, strings.Join(args, ", ")))

	if hasErr {
		sb.WriteString("\tif err != nil {\n")
		sb.WriteString("\t\treturn nil, err\n")
		sb.WriteString("\t}\n")
	}

	switch len(values) {
	case 0:
		sb.WriteString("\treturn nil, nil\n")
	case 1:
		sb.WriteString("\treturn result0, nil\n")
	default:
		sb.WriteString(fmt.Sprintf("\treturn []any{%s}, nil\n", strings.Join(values, ", ")))
	}
	sb.WriteString("}\n\n")

	return sb.String()
}

// GenerateHandlerFile generates a complete handler file
func GenerateHandlerFile(abi *ABI) (string, error) {
	code := NewHandlerGenerator(abi).GenerateHandlers()
	if !EnableFormatAfterGenerate {
		return code, nil
	}

	formatted, err := format.Source([]byte(code))
	if err != nil {
		return "", fmt.Errorf("failed to format code: %w", err)
	}
	return string(formatted), nil
}
