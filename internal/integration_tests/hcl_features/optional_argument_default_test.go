package integration_tests

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vk/procbridge/internal/app"
	"github.com/vk/procbridge/internal/handlers"
	"github.com/vk/procbridge/internal/proc"
	"github.com/vk/procbridge/internal/testutil"
)

// TestHclFeatures_OptionalArgumentDefault_FromFile tests that defaults
// declared in a manifest are applied to omitted trailing arguments.
func TestHclFeatures_OptionalArgumentDefault_FromFile(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	manifestHCL := `
		module "defaulter" {
		  procedure "run" {
		    handler = "Defaulter"
		    arg "required" {
		      type = string
		    }
		    arg "mode" {
		      type    = string
		      default = "standard"
		    }
		    arg "metadata" {
		      type    = map(string)
		      default = {
		        "source" = "test-suite"
		      }
		    }
		    result "seen" {
		      type = map(string)
		    }
		  }
		}
	`
	defaulter := func(required, mode string, metadata map[string]string) proc.Record {
		seen := map[string]string{"required": required, "mode": mode}
		for k, v := range metadata {
			seen["metadata."+k] = v
		}
		return proc.Record{"seen": seen}
	}
	mod := &testutil.FuncModule{Handlers: map[string]any{"Defaulter": defaulter}}

	result := testutil.RunApp(t, testutil.HarnessOptions{
		Files:   map[string]string{"defaulter/manifest.hcl": manifestHCL},
		Modules: []handlers.Module{mod},
	})
	require.NoError(t, result.Err)

	testCases := []struct {
		name string
		args []string
		want map[string]any
	}{
		{
			name: "all defaults",
			args: []string{`"must-be-present"`},
			want: map[string]any{"required": "must-be-present", "mode": "standard", "metadata.source": "test-suite"},
		},
		{
			name: "override first optional",
			args: []string{`"x"`, `"fast"`},
			want: map[string]any{"required": "x", "mode": "fast", "metadata.source": "test-suite"},
		},
		{
			name: "override all",
			args: []string{`"x"`, `"fast"`, `{owner = "me"}`},
			want: map[string]any{"required": "x", "mode": "fast", "metadata.owner": "me"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Act ---
			p, err := result.App.Registry().Lookup("defaulter.run")
			require.NoError(t, err)
			pctx, _ := testutil.NewInvocation(t, result.App.Store())
			args, err := app.ParseArgs(tc.args)
			require.NoError(t, err)
			rows, err := p.Invoke(pctx, args)

			// --- Assert ---
			require.NoError(t, err)
			require.Len(t, rows, 1)
			got := map[string]any{}
			for k, v := range rows[0]["seen"].AsValueMap() {
				got[k] = v.AsString()
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("seen mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

