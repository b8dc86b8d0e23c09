package validator

import (
	"embed"
	"go/parser"
	"go/token"
	"testing"

	"github.com/govm-net/greeter/contracts/hello"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/*.go
var testContracts embed.FS

func readContract(t *testing.T, name string) []byte {
	t.Helper()
	code, err := testContracts.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return code
}

func TestValidateContract(t *testing.T) {
	v := New(DefaultConfig())

	tests := []struct {
		name    string
		code    []byte
		wantErr string
	}{
		{"hello contract", hello.Source, ""},
		{"valid", readContract(t, "valid_contract.go"), ""},
		{"disallowed import", readContract(t, "invalid_import_contract.go"), "import fmt is not allowed"},
		{"go keyword", readContract(t, "go_keyword_contract.go"), "restricted keyword 'go'"},
		{"select keyword", readContract(t, "select_keyword_contract.go"), "restricted keyword 'select'"},
		{"recover", readContract(t, "recover_contract.go"), "restricted keyword 'recover'"},
		{"no exported functions", readContract(t, "no_exported_funcs_contract.go"), "at least one exported function"},
		{"not go", []byte("this is not go"), "failed to parse contract"},
		{"blank import", []byte("package greet\n\nimport _ \"github.com/govm-net/greeter/core\"\n\nfunc Greet() {}\n"), "blank import"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateContract(tt.code)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidContract)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateContractSize(t *testing.T) {
	v := New(Config{MaxCodeSize: 16, AllowedImports: DefaultConfig().AllowedImports})
	err := v.ValidateContract(hello.Source)
	assert.ErrorIs(t, err, ErrInvalidContract)
	assert.Contains(t, err.Error(), "exceeds maximum allowed size")
}

func TestValidateSubpackageImport(t *testing.T) {
	v := New(Config{MaxCodeSize: 1024, AllowedImports: []string{"github.com/govm-net/greeter"}})
	code := []byte("package greet\n\nimport \"github.com/govm-net/greeter/core\"\n\nfunc Greet(ctx core.Context) {}\n")
	assert.NoError(t, v.ValidateContract(code))

	v = New(Config{MaxCodeSize: 1024, AllowedImports: []string{"github.com/govm-net/green"}})
	assert.Error(t, v.ValidateContract(code))
}

func TestValidateNoRestrictedComments(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{
			name: "valid single-line comment",
			code: `package test
// This is a normal comment
func main() {}`,
		},
		{
			name: "valid multi-line comment",
			code: `package test
/* This is a normal
   multi-line comment */
func main() {}`,
		},
		{
			name: "go build",
			code: `package test
// go build -o test
func main() {}`,
			wantErr: true,
		},
		{
			name: "+build",
			code: `package test
// +build linux,amd64
func main() {}`,
			wantErr: true,
		},
		{
			name: "go:linkname",
			code: `package test
//go:linkname now time.now
func main() {}`,
			wantErr: true,
		},
		{
			name: "multi-line go build",
			code: `package test
/* some text
   go build -o test */
func main() {}`,
			wantErr: true,
		},
		{
			name: "export directive",
			code: `package test
//export greet
func main() {}`,
			wantErr: true,
		},
		{
			name: "line directive",
			code: `package test
//line other.go:10
func main() {}`,
			wantErr: true,
		},
		{
			name: "prose mentioning export",
			code: `package test
// exported for callers, line by line
func main() {}`,
		},
		{
			name: "word with restricted prefix",
			code: `package test
// going to implement something
func main() {}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fset := token.NewFileSet()
			file, err := parser.ParseFile(fset, "", tt.code, parser.ParseComments)
			require.NoError(t, err)

			err = validateNoRestrictedComments(fset, file)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidContract)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
