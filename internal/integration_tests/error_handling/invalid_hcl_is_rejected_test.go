package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/procbridge/internal/handlers"
	"github.com/vk/procbridge/internal/testutil"
)

// TestErrorHandling_InvalidManifests_AreRejected checks that malformed or
// inconsistent manifests stop the app before any procedure is registered.
func TestErrorHandling_InvalidManifests_AreRejected(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		manifest string
		wantErr  string
	}{
		{
			name:     "syntax error",
			manifest: `module "broken" {`,
			wantErr:  "failed to load manifest",
		},
		{
			name: "missing arg type",
			manifest: `
				module "m" {
				  procedure "p" {
				    handler = "NoOp"
				    arg "x" {
				    }
				  }
				}
			`,
			wantErr: "Missing 'type' attribute",
		},
		{
			name: "default does not fit type",
			manifest: `
				module "m" {
				  procedure "p" {
				    handler = "NoOp"
				    arg "x" {
				      type    = number
				      default = "ten"
				    }
				  }
				}
			`,
			wantErr: "Invalid default value type",
		},
		{
			name: "unknown type keyword",
			manifest: `
				module "m" {
				  procedure "p" {
				    handler = "NoOp"
				    arg "x" {
				      type = integer
				    }
				  }
				}
			`,
			wantErr: "integer",
		},
		{
			name: "procedure declared twice across files",
			manifest: `
				module "testing" {
				  procedure "noop" {
				    handler = "NoOp"
				  }
				}
			`,
			wantErr: "procedure testing.noop is declared in both",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			// --- Act ---
			result := testutil.RunApp(t, testutil.HarnessOptions{
				Files:   map[string]string{"m/manifest.hcl": tc.manifest},
				Modules: []handlers.Module{&testutil.NoOpModule{}},
			})

			// --- Assert ---
			require.Error(t, result.Err)
			assert.Contains(t, result.Err.Error(), tc.wantErr)
		})
	}
}
