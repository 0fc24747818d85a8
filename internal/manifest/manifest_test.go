package manifest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/procbridge/internal/manifest"
	"github.com/vk/procbridge/internal/proc"
	"github.com/zclconf/go-cty/cty"
)

const echoManifest = `
module "echo" {
  procedure "hello" {
    handler     = "EchoHello"
    description = "Echoes its arguments."

    arg "required_arg" { type = any }
    arg "optional_arg" {
      type    = any
      default = null
    }

    result "result" { type = string }
    result "args" {
      type       = any
      deprecated = true
    }
  }

  procedure "count" {
    handler = "EchoCount"
    arg "n" {
      type    = number
      default = 5
    }
  }
}
`

func TestParse_Echo(t *testing.T) {
	mods, diags := manifest.Parse(context.Background(), []byte(echoManifest), "echo.hcl")
	require.False(t, diags.HasErrors(), diags.Error())
	require.Len(t, mods, 1)

	m := mods[0]
	assert.Equal(t, "echo", m.Name)
	assert.Equal(t, "echo.hcl", m.FilePath)
	require.Len(t, m.Procedures, 2)

	hello := m.Procedures[0]
	assert.Equal(t, "hello", hello.Name)
	assert.Equal(t, "EchoHello", hello.Handler)
	assert.Equal(t, "Echoes its arguments.", hello.Description)
	require.Len(t, hello.Args, 2)
	assert.Equal(t, "required_arg", hello.Args[0].Name)
	assert.Nil(t, hello.Args[0].Default)
	require.NotNil(t, hello.Args[1].Default)
	assert.True(t, hello.Args[1].Default.IsNull())
	assert.True(t, hello.DeclaresResults)
	require.Len(t, hello.Results, 2)
	assert.True(t, hello.Results[0].Type.Equals(cty.String))
	assert.True(t, hello.Results[1].Deprecated)

	sig := hello.Signature()
	require.Len(t, sig.Args, 2)
	assert.False(t, sig.Args[0].Optional())
	assert.True(t, sig.Args[1].Optional())
	require.NotNil(t, sig.Results)
	assert.True(t, sig.Results.Fields[1].Deprecated)

	count := m.Procedures[1]
	assert.False(t, count.DeclaresResults)
	assert.Nil(t, count.Signature().Results)
	require.NotNil(t, count.Args[0].Default)
	assert.True(t, count.Args[0].Default.RawEquals(cty.NumberIntVal(5)))
}

// procedureWith wraps body into a module "m" / procedure "p" block.
func procedureWith(body string) string {
	return `
module "m" {
  procedure "p" {
    handler = "H"
` + body + `
  }
}
`
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		summary string
	}{
		{
			name: "missing handler",
			src: `
module "m" {
  procedure "p" {
  }
}
`,
			summary: "Missing required argument",
		},
		{
			name:    "missing arg type",
			src:     procedureWith(`arg "a" {}`),
			summary: "Missing 'type' attribute",
		},
		{
			name:    "unknown type",
			src:     procedureWith(`arg "a" { type = integer }`),
			summary: "Invalid type specification",
		},
		{
			name: "bad default",
			src: procedureWith(`
arg "a" {
  type    = number
  default = "many"
}`),
			summary: "Invalid default value type",
		},
		{
			name: "duplicate arg",
			src: procedureWith(`
arg "a" { type = string }
arg "a" { type = string }`),
			summary: "Duplicate argument definition",
		},
		{
			name: "duplicate result",
			src: procedureWith(`
result "r" { type = string }
result "r" { type = string }`),
			summary: "Duplicate result definition",
		},
		{
			name: "duplicate procedure",
			src: `
module "m" {
  procedure "p" {
    handler = "H"
  }
  procedure "p" {
    handler = "H"
  }
}
`,
			summary: "Duplicate procedure definition",
		},
		{
			name:    "syntax",
			src:     `module "m" {`,
			summary: "Unclosed configuration block",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, diags := manifest.Parse(context.Background(), []byte(tc.src), "bad.hcl")
			require.True(t, diags.HasErrors())
			var summaries []string
			for _, d := range diags {
				summaries = append(summaries, d.Summary)
			}
			assert.Contains(t, summaries, tc.summary)
		})
	}
}

func TestParseType(t *testing.T) {
	testCases := []struct {
		src  string
		want cty.Type
	}{
		{"string", cty.String},
		{"number", cty.Number},
		{"bool", cty.Bool},
		{"any", cty.DynamicPseudoType},
		{"vertex", proc.VertexCapsule},
		{"edge", proc.EdgeCapsule},
		{"path", proc.PathCapsule},
		{"list(string)", cty.List(cty.String)},
		{"set(number)", cty.Set(cty.Number)},
		{"map(bool)", cty.Map(cty.Bool)},
		{"list(vertex)", cty.List(proc.VertexCapsule)},
		{`object({ name = string, "tags" = list(string) })`, cty.Object(map[string]cty.Type{
			"name": cty.String,
			"tags": cty.List(cty.String),
		})},
		{"object({})", cty.EmptyObject},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			src := procedureWith(`arg "a" { type = ` + tc.src + ` }`)
			mods, diags := manifest.Parse(context.Background(), []byte(src), "types.hcl")
			require.False(t, diags.HasErrors(), diags.Error())
			got := mods[0].Procedures[0].Args[0].Type
			assert.True(t, got.Equals(tc.want), "got %s", got.FriendlyName())
		})
	}

	for _, bad := range []string{"list(any)", "list(string, number)", "tuple(string)", "foo.bar", `"string"`} {
		t.Run("invalid "+bad, func(t *testing.T) {
			src := procedureWith(`arg "a" { type = ` + bad + ` }`)
			_, diags := manifest.Parse(context.Background(), []byte(src), "types.hcl")
			require.True(t, diags.HasErrors())
		})
	}
}

func TestLoadDir_MergesModulesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write("a/one.hcl", "module \"m\" {\n  procedure \"p\" { handler = \"P\" }\n}\n")
	write("b/two.hcl", "module \"m\" {\n  procedure \"q\" { handler = \"Q\" }\n}\n")
	write("b/ignored.txt", `not hcl`)

	mods, err := manifest.LoadDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, mods, 1)
	require.Len(t, mods[0].Procedures, 2)
	assert.Equal(t, "p", mods[0].Procedures[0].Name)
	assert.Equal(t, "q", mods[0].Procedures[1].Name)

	write("c/three.hcl", "module \"m\" {\n  procedure \"p\" { handler = \"P2\" }\n}\n")
	_, err = manifest.LoadDir(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "procedure m.p is declared in both")
}

func TestLoadDir_Empty(t *testing.T) {
	mods, err := manifest.LoadDir(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, mods)
}
