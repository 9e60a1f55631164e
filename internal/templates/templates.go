// Package templates renders the source files emitted by the waypost CLI:
// domain skeletons, controller scaffolds and the discovery import manifest.
package templates

import (
	"bytes"
	"strings"
	"text/template"
	"unicode"

	"golang.org/x/tools/imports"

	"github.com/waypost-dev/waypost/internal/errors"
)

// ControllerData feeds the controller scaffold templates.
type ControllerData struct {
	Package  string
	Type     string // exported identifier, e.g. "Users"
	Var      string // controller handle variable, e.g. "usersController"
	BasePath string
	Group    string
	CRUD     bool
}

// ManifestData feeds the import manifest template.
type ManifestData struct {
	Package string
	Imports []string
}

// DomainData feeds the domain doc.go template.
type DomainData struct {
	Name string
}

const controllerTemplate = `package {{.Package}}

import (
	"encoding/json"
	"net/http"

	"github.com/waypost-dev/waypost/pkg/waypost"
)

var {{.Var}} = waypost.Controller("{{.BasePath}}"{{if .Group}}, waypost.WithGroup("{{.Group}}"){{end}})

var _ = {{.Var}}.Get("/", list{{.Type}})
{{- if .CRUD}}

var _ = {{.Var}}.Post("/create", create{{.Type}})

var _ = {{.Var}}.Put("/update", update{{.Type}})

var _ = {{.Var}}.Patch("/partial_update", partialUpdate{{.Type}})

var _ = {{.Var}}.Delete("/delete", delete{{.Type}})
{{- end}}

func list{{.Type}}(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"message": "list {{.Type}}"})
}
{{- if .CRUD}}

func create{{.Type}}(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]any{"message": "{{.Type}} created successfully"})
}

func update{{.Type}}(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"message": "{{.Type}} updated successfully"})
}

func partialUpdate{{.Type}}(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"message": "{{.Type}} updated successfully"})
}

func delete{{.Type}}(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"message": "{{.Type}} deleted successfully"})
}
{{- end}}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
`

const manifestTemplate = `// Code generated by waypost sync. DO NOT EDIT.

// This manifest links every declaring handler module into the binary so
// their annotations run at startup. Regenerate with: waypost sync
package {{.Package}}

import (
{{- range .Imports}}
	_ "{{.}}"
{{- end}}
)
`

const domainDocTemplate = `// Package {{.Name}} is a waypost domain. Handler modules under this
// directory are discovered and registered automatically at startup.
package {{.Name}}
`

// RenderController renders a controller scaffold, optionally with the full
// CRUD handler set.
func RenderController(data ControllerData) (string, error) {
	return render("controller", controllerTemplate, data)
}

// RenderManifest renders the discovery import manifest.
func RenderManifest(data ManifestData) (string, error) {
	return render("manifest", manifestTemplate, data)
}

// RenderDomainDoc renders a domain package doc file.
func RenderDomainDoc(data DomainData) (string, error) {
	return render("domain-doc", domainDocTemplate, data)
}

// render executes a template and runs the output through the imports
// processor so scaffolds always land gofmt-clean.
func render(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", errors.WrapTemplate(name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.WrapTemplate(name, err)
	}
	formatted, err := imports.Process(name+".go", buf.Bytes(), nil)
	if err != nil {
		return "", errors.WrapTemplate(name, err)
	}
	return string(formatted), nil
}

// ExportedName converts a domain or controller name to an exported Go
// identifier: "user-profiles" becomes "UserProfiles".
func ExportedName(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if r == '-' || r == '_' || r == ' ' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// VarName returns the controller handle variable for a name:
// "user-profiles" becomes "userProfilesController".
func VarName(name string) string {
	exported := ExportedName(name)
	if exported == "" {
		return "controller"
	}
	return strings.ToLower(exported[:1]) + exported[1:] + "Controller"
}

// PackageName lowercases a name into a usable package identifier.
func PackageName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r == '-' || r == '_' || r == ' ' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
