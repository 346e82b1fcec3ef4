package payload

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/joho/godotenv"

	"github.com/Iron-Ham/devstrap/internal/config"
	"github.com/Iron-Ham/devstrap/internal/errors"
)

func scripts(t *testing.T, data []byte) map[string]string {
	t.Helper()
	var pkg struct {
		Scripts map[string]string `json:"scripts"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		t.Fatalf("package.json is not valid JSON: %v", err)
	}
	return pkg.Scripts
}

func TestSpec_Variants(t *testing.T) {
	tests := []struct {
		variant    string
		wantServer bool
	}{
		{config.VariantBasic, false},
		{config.VariantExtended, true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			spec, err := Spec("/work/app", tt.variant)
			if err != nil {
				t.Fatalf("Spec() error = %v", err)
			}
			if err := spec.Validate(); err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if spec.Root != "/work/app" {
				t.Errorf("Root = %q", spec.Root)
			}

			for _, f := range []string{"package.json", "vite.config.js", "index.html", "src/main.jsx", "src/App.jsx", "src/pages/Dashboard.jsx", ".gitignore"} {
				if _, ok := spec.Files[f]; !ok {
					t.Errorf("missing %s", f)
				}
			}
			if _, ok := spec.Files["gitignore"]; ok {
				t.Error("gitignore should be renamed to .gitignore")
			}

			_, hasServer := spec.Files["server/index.js"]
			if hasServer != tt.wantServer {
				t.Errorf("server/index.js present = %v, want %v", hasServer, tt.wantServer)
			}
			_, hasMigration := spec.Files["supabase/migrations/001_initial_schema.sql"]
			if hasMigration != tt.wantServer {
				t.Errorf("migration present = %v, want %v", hasMigration, tt.wantServer)
			}

			s := scripts(t, spec.Files["package.json"])
			if s["dev"] != "vite" {
				t.Errorf("dev script = %q, want vite", s["dev"])
			}
			if _, ok := s["server"]; ok != tt.wantServer {
				t.Errorf("server script present = %v, want %v", ok, tt.wantServer)
			}
		})
	}
}

func TestSpec_DirectoriesInDeclaredOrder(t *testing.T) {
	spec, err := Spec("/r", config.VariantBasic)
	if err != nil {
		t.Fatal(err)
	}
	want := "src,src/components,src/components/Layout,src/contexts,src/pages,src/common,public"
	if got := strings.Join(spec.Dirs, ","); got != want {
		t.Errorf("Dirs = %s, want %s", got, want)
	}
}

func TestSpec_UnknownVariant(t *testing.T) {
	_, err := Spec("/r", "deluxe")
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("Spec(deluxe) error = %v, want ErrInvalidInput", err)
	}
}

func TestSpec_IsDeterministic(t *testing.T) {
	a, _ := Spec("/r", config.VariantExtended)
	b, _ := Spec("/r", config.VariantExtended)
	if strings.Join(a.FilePaths(), ",") != strings.Join(b.FilePaths(), ",") {
		t.Error("file sets differ between calls")
	}
	for p, data := range a.Files {
		if string(b.Files[p]) != string(data) {
			t.Errorf("%s differs between calls", p)
		}
	}
}

func TestEnv(t *testing.T) {
	cfg := config.EnvConfig{FrontendPort: 3100, BackendPort: 5100, AIProvider: "pollinations"}

	t.Run("extended", func(t *testing.T) {
		data, err := Env(cfg, config.VariantExtended)
		if err != nil {
			t.Fatalf("Env() error = %v", err)
		}
		if !strings.HasPrefix(string(data), "# Generated by devstrap") {
			t.Errorf("missing header: %q", data)
		}

		values, err := godotenv.Unmarshal(string(data))
		if err != nil {
			t.Fatalf("generated .env does not parse: %v", err)
		}
		want := map[string]string{
			"PORT":                     "5100",
			"VITE_PORT":                "3100",
			"FRONTEND_URL":             "http://localhost:3100",
			"VITE_API_URL":             "http://localhost:5100/api",
			"DEFAULT_AI_PROVIDER":      "pollinations",
			"VITE_DEFAULT_AI_PROVIDER": "pollinations",
			"SUPABASE_URL":             "",
			"SUPABASE_SERVICE_KEY":     "",
		}
		for k, v := range want {
			got, ok := values[k]
			if !ok || got != v {
				t.Errorf("%s = %q (present %v), want %q", k, got, ok, v)
			}
		}
	})

	t.Run("basic omits server keys", func(t *testing.T) {
		data, err := Env(cfg, config.VariantBasic)
		if err != nil {
			t.Fatalf("Env() error = %v", err)
		}
		values, err := godotenv.Unmarshal(string(data))
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := values["PORT"]; ok {
			t.Error("basic .env should not set PORT")
		}
		if values["VITE_PORT"] != "3100" {
			t.Errorf("VITE_PORT = %q", values["VITE_PORT"])
		}
	})
}
