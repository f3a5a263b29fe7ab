package scenario

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cottand/jinfer/frontend/infer"
	"github.com/cottand/jinfer/frontend/lookup"
	"github.com/cottand/jinfer/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("methods:\n  - name: m\n    retruns: T\n"))
	assert.ErrorContains(t, err, "retruns")

	s, err := Load(strings.NewReader("methods:\n  - name: m\n    returns: T\n    typeParams: [{name: T}]\n"))
	require.NoError(t, err)
	require.Len(t, s.Methods, 1)
	assert.Equal(t, "T", s.Methods[0].Returns)
}

func TestParseType(t *testing.T) {
	p, err := NewTypeParser()
	require.NoError(t, err)
	defer p.Close()

	env := lookup.NewEnvironment(types.NewTypeSystem())
	m := env.DeclareMethod(nil, "m", "T")
	sc := (&scope{env: env}).with(m.TypeParameters)

	tests := []struct {
		text string
		want string
	}{
		{"String", "String"},
		{"int", "int"},
		{"", "void"},
		{"T", "T"},
		{"List<String>", "List<String>"},
		{"java.util.List<T>", "List<T>"},
		{"Map<String, ? extends Number>", "Map<String,? extends Number>"},
		{"List<? super T>", "List<? super T>"},
		{"List<?>", "List<?>"},
		{"String[][]", "String[][]"},
		{"List<String>[]", "List<String>[]"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			parsed, err := p.Parse(tt.text, sc)
			require.NoError(t, err)
			assert.Equal(t, strings.ReplaceAll(tt.want, " ", ""), strings.ReplaceAll(parsed.String(), " ", ""))
		})
	}

	t.Run("interned", func(t *testing.T) {
		a, err := p.Parse("List<String>", sc)
		require.NoError(t, err)
		b, err := p.Parse("List< String >", sc)
		require.NoError(t, err)
		assert.Same(t, a, b)
	})

	for _, bad := range []string{"Nope", "List<String, String>", "String<Integer>", "List<"} {
		t.Run("invalid "+bad, func(t *testing.T) {
			_, err := p.Parse(bad, sc)
			assert.Error(t, err)
		})
	}
}

func TestRunScenarioFile(t *testing.T) {
	s, err := LoadFile("testdata/jls18.yaml")
	require.NoError(t, err)

	report, err := Run(s, infer.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, report.Results, len(s.Invocations))

	buf := &bytes.Buffer{}
	require.NoError(t, report.Write(buf))
	for _, res := range report.Results {
		assert.True(t, res.OK(), "%s: %s\n%s", res.Name, res.Mismatch, buf)
	}
	assert.Zero(t, report.Failed())
	assert.Contains(t, buf.String(), "15/15 invocations as expected")
}

func TestRunReportsMismatches(t *testing.T) {
	s, err := Load(strings.NewReader(`
methods:
  - {name: id, typeParams: [{name: T}], params: [T], returns: T}
invocations:
  - name: wrong expectation
    method: id
    args: [{type: String}]
    expect: {typeArgs: [Integer]}
  - name: unknown method
    method: nope
  - name: two kinds of argument
    method: id
    args: [{type: String, lambda: {arity: 1}}]
  - name: expected failure
    method: id
    args: [{type: String}]
    target: Integer
    expect: {fails: true}
`))
	require.NoError(t, err)

	report, err := Run(s, infer.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, report.Results, 4)
	assert.Equal(t, 3, report.Failed())
	assert.Contains(t, report.Results[0].Mismatch, "expected type arguments [Integer]")
	assert.Equal(t, "invalid invocation", report.Results[1].Mismatch)
	assert.Error(t, report.Results[2].Err)
	assert.True(t, report.Results[3].OK())
	assert.Len(t, report.Errors().Errors(), 3)
}

func TestRunRejectsInvalidDeclarations(t *testing.T) {
	s, err := Load(strings.NewReader(`
classes:
  - {name: A, superclass: Missing}
`))
	require.NoError(t, err)
	_, err = Run(s, infer.DefaultOptions())
	assert.ErrorContains(t, err, "unknown type Missing")
}
