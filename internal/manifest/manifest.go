// Package manifest parses the dependency-manifest files C12's watcher
// treats specially (pyproject.toml, Cargo.toml, package.json, go.mod,
// requirements.txt) into a flat project name + dependency list, used as
// enrichment context rather than left as an opaque "something changed"
// trigger. Where the teacher's own resolver hand-rolls a TOML scan with a
// "simplified parser ... in production use a proper TOML parsing library"
// comment (internal/symbollinker/python_resolver.go), this package is that
// proper parser.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Info is the parsed subset of a manifest useful as retrieval/enrichment
// context: the declared project name and its first-order dependency
// names, version specifiers stripped.
type Info struct {
	Name         string
	Dependencies []string
}

// Load reads whichever dependency manifests are present at root and
// merges their Info. A project with more than one manifest (e.g. a
// pyproject.toml alongside a package.json for a mixed-language repo)
// unions their dependencies; the first manifest to declare a name wins.
func Load(root string) Info {
	var out Info
	for _, load := range []func(string) (Info, bool){
		loadPyproject, loadCargo, loadPackageJSON, loadGoMod, loadRequirements,
	} {
		if info, ok := load(root); ok {
			if out.Name == "" {
				out.Name = info.Name
			}
			out.Dependencies = append(out.Dependencies, info.Dependencies...)
		}
	}
	return out
}

type pyprojectManifest struct {
	Project struct {
		Name         string   `toml:"name"`
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name         string                 `toml:"name"`
			Dependencies map[string]interface{} `toml:"dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

func loadPyproject(root string) (Info, bool) {
	data, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	if err != nil {
		return Info{}, false
	}
	var pp pyprojectManifest
	if err := toml.Unmarshal(data, &pp); err != nil {
		return Info{}, false
	}

	info := Info{Name: pp.Project.Name}
	info.Dependencies = append(info.Dependencies, stripVersionSpecifiers(pp.Project.Dependencies)...)
	if info.Name == "" {
		info.Name = pp.Tool.Poetry.Name
	}
	for dep := range pp.Tool.Poetry.Dependencies {
		if dep == "python" {
			continue
		}
		info.Dependencies = append(info.Dependencies, dep)
	}
	return info, true
}

type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Dependencies map[string]interface{} `toml:"dependencies"`
}

func loadCargo(root string) (Info, bool) {
	data, err := os.ReadFile(filepath.Join(root, "Cargo.toml"))
	if err != nil {
		return Info{}, false
	}
	var cg cargoManifest
	if err := toml.Unmarshal(data, &cg); err != nil {
		return Info{}, false
	}

	info := Info{Name: cg.Package.Name}
	for dep := range cg.Dependencies {
		info.Dependencies = append(info.Dependencies, dep)
	}
	return info, true
}

type packageJSONManifest struct {
	Name         string            `json:"name"`
	Dependencies map[string]string `json:"dependencies"`
}

func loadPackageJSON(root string) (Info, bool) {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return Info{}, false
	}
	var pkg packageJSONManifest
	if err := json.Unmarshal(data, &pkg); err != nil {
		return Info{}, false
	}

	info := Info{Name: pkg.Name}
	for dep := range pkg.Dependencies {
		info.Dependencies = append(info.Dependencies, dep)
	}
	return info, true
}

func loadGoMod(root string) (Info, bool) {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return Info{}, false
	}

	var info Info
	inRequire := false
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "module "):
			info.Name = strings.TrimSpace(strings.TrimPrefix(line, "module"))
		case line == "require (":
			inRequire = true
		case inRequire && line == ")":
			inRequire = false
		case inRequire:
			fields := strings.Fields(line)
			if len(fields) > 0 {
				info.Dependencies = append(info.Dependencies, fields[0])
			}
		case strings.HasPrefix(line, "require ") && !strings.Contains(line, "("):
			fields := strings.Fields(strings.TrimPrefix(line, "require "))
			if len(fields) > 0 {
				info.Dependencies = append(info.Dependencies, fields[0])
			}
		}
	}
	return info, true
}

// loadRequirements parses requirements.txt the same way the teacher's
// own parseRequirements does: one package per non-comment line, version
// operators stripped.
func loadRequirements(root string) (Info, bool) {
	data, err := os.ReadFile(filepath.Join(root, "requirements.txt"))
	if err != nil {
		return Info{}, false
	}

	var info Info
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name := line
		for _, op := range []string{"==", ">=", "<=", "!=", "~=", ">", "<"} {
			if idx := strings.Index(line, op); idx != -1 {
				name = strings.TrimSpace(line[:idx])
				break
			}
		}
		if name != "" {
			info.Dependencies = append(info.Dependencies, name)
		}
	}
	return info, true
}

func stripVersionSpecifiers(deps []string) []string {
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		for _, op := range []string{"==", ">=", "<=", "!=", "~=", ">", "<"} {
			if idx := strings.Index(d, op); idx != -1 {
				d = d[:idx]
				break
			}
		}
		out = append(out, strings.TrimSpace(d))
	}
	return out
}
