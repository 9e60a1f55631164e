package cli

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/waypost-dev/waypost/internal/errors"
	"github.com/waypost-dev/waypost/internal/templates"
)

var (
	newBootstrap      bool
	newCRUD           bool
	newControllerName string
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Scaffold domains and controllers",
}

var newDomainCmd = &cobra.Command{
	Use:   "domain <name>",
	Short: "Create a domain under the first discovery root",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNewDomain(args[0])
	},
}

var newControllerCmd = &cobra.Command{
	Use:   "controller <domain>",
	Short: "Create a controller inside an existing domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNewController(args[0])
	},
}

func init() {
	newDomainCmd.Flags().BoolVar(&newBootstrap, "bootstrap", false, "also scaffold a controller for the domain")
	newDomainCmd.Flags().BoolVar(&newCRUD, "crud", false, "generate the full CRUD handler set when bootstrapping")
	newControllerCmd.Flags().BoolVar(&newCRUD, "crud", false, "generate the full CRUD handler set")
	newControllerCmd.Flags().StringVar(&newControllerName, "name", "", "controller name (default: domain name)")
	newCmd.AddCommand(newDomainCmd, newControllerCmd)
	rootCmd.AddCommand(newCmd)
}

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

func validName(name string) error {
	if !namePattern.MatchString(name) {
		return errors.NewValidation("invalid name %q", name).
			WithHint("names start with a letter and use lowercase letters, digits, '-' or '_'")
	}
	return nil
}

func runNewDomain(name string) error {
	diag := NewDiagnostics(verbose)
	if err := validName(name); err != nil {
		return reportCLIError(diag, err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return reportCLIError(diag, err)
	}
	root, err := firstRoot(cfg.Discovery.Roots)
	if err != nil {
		return reportCLIError(diag, err)
	}
	dir := filepath.Join(root, name)
	if _, err := os.Stat(dir); err == nil {
		return reportCLIError(diag, errors.NewValidation("domain %s already exists at %s", name, dir))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return reportCLIError(diag, errors.WrapFileSystem("create", dir, err))
	}

	doc, err := templates.RenderDomainDoc(templates.DomainData{Name: templates.PackageName(name)})
	if err != nil {
		return reportCLIError(diag, err)
	}
	docPath := filepath.Join(dir, "doc.go")
	if err := os.WriteFile(docPath, []byte(doc), 0o644); err != nil {
		return reportCLIError(diag, errors.WrapFileSystem("write", docPath, err))
	}
	diag.Success("created domain %s", dir)

	if newBootstrap {
		if err := scaffoldController(diag, dir, name, name, newCRUD); err != nil {
			return err
		}
	}
	diag.Info("next: declare handlers, then run `waypost sync` to refresh the import manifest")
	return nil
}

func runNewController(domain string) error {
	diag := NewDiagnostics(verbose)
	if err := validName(domain); err != nil {
		return reportCLIError(diag, err)
	}
	name := newControllerName
	if name == "" {
		name = domain
	}
	if err := validName(name); err != nil {
		return reportCLIError(diag, err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return reportCLIError(diag, err)
	}
	root, err := firstRoot(cfg.Discovery.Roots)
	if err != nil {
		return reportCLIError(diag, err)
	}
	dir := filepath.Join(root, domain)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return reportCLIError(diag, errors.NewValidation("domain %s not found at %s", domain, dir).
			WithHint("create it first: waypost new domain %s", domain))
	}
	return scaffoldController(diag, dir, domain, name, newCRUD)
}

// scaffoldController writes <dir>/controllers/<name>.go from the controller
// template.
func scaffoldController(diag *Diagnostics, domainDir, domain, name string, crud bool) error {
	ctrlDir := filepath.Join(domainDir, "controllers")
	if err := os.MkdirAll(ctrlDir, 0o755); err != nil {
		return reportCLIError(diag, errors.WrapFileSystem("create", ctrlDir, err))
	}
	file := filepath.Join(ctrlDir, templates.PackageName(name)+".go")
	if _, err := os.Stat(file); err == nil {
		return reportCLIError(diag, errors.NewValidation("controller file %s already exists", file))
	}

	src, err := templates.RenderController(templates.ControllerData{
		Package:  "controllers",
		Type:     templates.ExportedName(name),
		Var:      templates.VarName(name),
		BasePath: "/" + templates.PackageName(name),
		Group:    templates.PackageName(domain),
		CRUD:     crud,
	})
	if err != nil {
		return reportCLIError(diag, err)
	}
	if err := os.WriteFile(file, []byte(src), 0o644); err != nil {
		return reportCLIError(diag, errors.WrapFileSystem("write", file, err))
	}
	diag.Success("created controller %s", file)
	return nil
}

func firstRoot(roots []string) (string, error) {
	if len(roots) == 0 {
		return "", errors.NewValidation("no discovery roots configured").
			WithHint("set discovery.roots in waypost.yml")
	}
	return roots[0], nil
}

// reportCLIError prints coded errors with their hints and passes the error
// back to cobra for the exit status.
func reportCLIError(diag *Diagnostics, err error) error {
	var coded *errors.BaseError
	if stderrors.As(err, &coded) {
		diag.Error("%s", coded.Detail())
	} else {
		diag.Error("%v", err)
	}
	return err
}
