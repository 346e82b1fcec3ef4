// Package payload holds the project template written by the scaffold step.
//
// Templates live under templates/common (shared Vite/React frontend) and
// templates/<variant> (overlay). Files named without their leading dot are
// renamed on the way out, because embed skips dotfiles by default.
package payload

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Iron-Ham/devstrap/internal/config"
	"github.com/Iron-Ham/devstrap/internal/errors"
	"github.com/Iron-Ham/devstrap/internal/scaffold"
)

//go:embed templates
var templates embed.FS

// EnvFile is the name of the generated environment file.
const EnvFile = ".env"

var renames = map[string]string{
	"gitignore": ".gitignore",
}

var frontendDirs = []string{
	"src",
	"src/components",
	"src/components/Layout",
	"src/contexts",
	"src/pages",
	"src/common",
	"public",
}

var serverDirs = []string{
	"server",
	"server/routes",
	"server/services",
	"server/config",
	"server/utils",
	"supabase/migrations",
}

// Spec returns the scaffold spec for variant rooted at root.
func Spec(root, variant string) (scaffold.Spec, error) {
	var dirs []string
	switch variant {
	case config.VariantBasic:
		dirs = frontendDirs
	case config.VariantExtended:
		dirs = append(append([]string{}, frontendDirs...), serverDirs...)
	default:
		return scaffold.Spec{}, errors.Wrapf(errors.ErrInvalidInput, "unknown payload variant %q", variant)
	}

	files := make(map[string][]byte)
	for _, layer := range []string{"common", variant} {
		if err := collect(path.Join("templates", layer), files); err != nil {
			return scaffold.Spec{}, err
		}
	}

	return scaffold.Spec{Root: root, Dirs: dirs, Files: files}, nil
}

// collect copies every file under dir into files, keyed relative to dir.
// Later layers overwrite earlier ones.
func collect(dir string, files map[string][]byte) error {
	return fs.WalkDir(templates, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := templates.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read template %s: %w", p, err)
		}
		rel := strings.TrimPrefix(p, dir+"/")
		if renamed, ok := renames[path.Base(rel)]; ok {
			rel = path.Join(path.Dir(rel), renamed)
		}
		files[rel] = data
		return nil
	})
}

// Env renders the .env file for variant. Ports come from cfg so the
// generated project agrees with the processes devstrap launches.
func Env(cfg config.EnvConfig, variant string) ([]byte, error) {
	frontendURL := "http://localhost:" + strconv.Itoa(cfg.FrontendPort)
	apiURL := "http://localhost:" + strconv.Itoa(cfg.BackendPort) + "/api"

	values := map[string]string{
		"VITE_PORT":                strconv.Itoa(cfg.FrontendPort),
		"VITE_API_URL":             apiURL,
		"VITE_DEFAULT_AI_PROVIDER": cfg.AIProvider,
	}
	if variant == config.VariantExtended {
		values["PORT"] = strconv.Itoa(cfg.BackendPort)
		values["FRONTEND_URL"] = frontendURL
		values["DEFAULT_AI_PROVIDER"] = cfg.AIProvider
		values["SUPABASE_URL"] = ""
		values["SUPABASE_ANON_KEY"] = ""
		values["SUPABASE_SERVICE_KEY"] = ""
		values["OPENAI_API_KEY"] = ""
	}

	body, err := godotenv.Marshal(values)
	if err != nil {
		return nil, errors.Wrap(err, "render .env")
	}

	var sb strings.Builder
	sb.WriteString("# Generated by devstrap. Fill in the empty keys before using the integrations.\n")
	sb.WriteString(body)
	sb.WriteString("\n")
	return []byte(sb.String()), nil
}
