package waypost

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
)

// CaptureImportPath is the import path declaring modules use for the capture
// API. The walker keys declaration detection on it.
const CaptureImportPath = "github.com/waypost-dev/waypost/pkg/waypost"

// StaticRoute is a route declaration recovered from source text without
// executing it. It backs the walker's loaded-check and the CLI's offline
// route listing; the authoritative table is always the captured registry.
type StaticRoute struct {
	Method   HTTPMethod
	Path     string
	BasePath string
	Group    string
	Owner    OwnerKind
	File     string
	Line     int

	// Dynamic marks declarations whose path or method is not a literal and
	// could not be recovered statically.
	Dynamic bool
}

// FullPath joins the controller base path for method-owned declarations.
func (s StaticRoute) FullPath() string {
	if s.Owner == OwnerMethod && s.BasePath != "" {
		p, err := JoinPaths(RoutePath(s.BasePath), RoutePath(s.Path)).Normalized()
		if err == nil {
			return string(p)
		}
	}
	if p, err := RoutePath(s.Path).Normalized(); err == nil {
		return string(p)
	}
	return s.Path
}

type scanError struct {
	file string
	err  error
}

func (e *scanError) Error() string { return fmt.Sprintf("%s: %v", e.file, e.err) }
func (e *scanError) Unwrap() error { return e.err }

var verbFuncs = map[string]HTTPMethod{
	"Get": GET, "Post": POST, "Put": PUT, "Patch": PATCH,
	"Delete": DELETE, "Options": OPTIONS, "Head": HEAD,
}

type staticController struct {
	basePath string
	group    string
}

// scanModuleSource parses every file of a module and recovers its capture
// API declarations. A parse failure is returned as a *scanError so the
// walker can report the failing file.
//
// Detection is syntactic: package-level capture calls through the waypost
// import and verb calls on variables assigned from a Controller call. Calls
// through registry values held in arbitrary expressions are not recovered;
// under-detection only weakens the loaded-check, never breaks a working
// registration.
func scanModuleSource(dir string, files []string) ([]StaticRoute, error) {
	fset := token.NewFileSet()
	parsed := make([]*ast.File, 0, len(files))
	for _, file := range files {
		f, err := parser.ParseFile(fset, file, nil, parser.SkipObjectResolution)
		if err != nil {
			return nil, &scanError{file: file, err: err}
		}
		parsed = append(parsed, f)
	}

	// First pass: waypost import aliases per file and controller handle
	// variables anywhere in the package.
	aliases := make([]map[string]bool, len(parsed))
	controllers := make(map[string]staticController)
	for i, f := range parsed {
		aliases[i] = captureAliases(f)
		collectControllerVars(f, aliases[i], controllers)
	}

	var routes []StaticRoute
	for i, f := range parsed {
		alias := aliases[i]
		if len(alias) == 0 {
			continue
		}
		ast.Inspect(f, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			recv, ok := sel.X.(*ast.Ident)
			if !ok {
				return true
			}

			pos := fset.Position(call.Pos())
			switch {
			case alias[recv.Name]:
				if r, ok := staticRouteFromCall(call, sel.Sel.Name, alias, OwnerFunction, staticController{}, pos); ok {
					routes = append(routes, r)
				}
			default:
				ctrl, isCtrl := controllers[recv.Name]
				if !isCtrl {
					return true
				}
				if r, ok := staticRouteFromCall(call, sel.Sel.Name, alias, OwnerMethod, ctrl, pos); ok {
					routes = append(routes, r)
				}
			}
			return true
		})
	}
	return routes, nil
}

// captureAliases returns the local names the waypost package is imported
// under in a file.
func captureAliases(f *ast.File) map[string]bool {
	names := make(map[string]bool)
	for _, imp := range f.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path != CaptureImportPath {
			continue
		}
		switch {
		case imp.Name == nil:
			names["waypost"] = true
		case imp.Name.Name == "_" || imp.Name.Name == ".":
			// Blank imports declare nothing; dot imports are not supported
			// by the static scan.
		default:
			names[imp.Name.Name] = true
		}
	}
	return names
}

// collectControllerVars records variables assigned from a Controller call,
// in both var declarations and assignment statements.
func collectControllerVars(f *ast.File, alias map[string]bool, out map[string]staticController) {
	record := func(name string, rhs ast.Expr) {
		call, ok := rhs.(*ast.CallExpr)
		if !ok {
			return
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || sel.Sel.Name != "Controller" {
			return
		}
		recv, ok := sel.X.(*ast.Ident)
		if !ok || !alias[recv.Name] {
			return
		}
		ctrl := staticController{}
		if len(call.Args) > 0 {
			ctrl.basePath, _ = stringLit(call.Args[0])
		}
		ctrl.group = optionGroup(call.Args, alias)
		out[name] = ctrl
	}

	ast.Inspect(f, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.ValueSpec:
			for i, name := range node.Names {
				if i < len(node.Values) {
					record(name.Name, node.Values[i])
				}
			}
		case *ast.AssignStmt:
			for i, lhs := range node.Lhs {
				ident, ok := lhs.(*ast.Ident)
				if !ok || i >= len(node.Rhs) {
					continue
				}
				record(ident.Name, node.Rhs[i])
			}
		}
		return true
	})
}

// staticRouteFromCall recovers a declaration from a verb or Route call.
func staticRouteFromCall(call *ast.CallExpr, fn string, alias map[string]bool, owner OwnerKind, ctrl staticController, pos token.Position) (StaticRoute, bool) {
	r := StaticRoute{
		Owner:    owner,
		BasePath: ctrl.basePath,
		File:     pos.Filename,
		Line:     pos.Line,
	}

	var pathArg ast.Expr
	switch {
	case verbFuncs[fn] != "":
		r.Method = verbFuncs[fn]
		if len(call.Args) > 0 {
			pathArg = call.Args[0]
		}
	case fn == "Route":
		if len(call.Args) > 1 {
			if m, ok := methodConst(call.Args[0]); ok {
				r.Method = m
			} else {
				r.Dynamic = true
			}
			pathArg = call.Args[1]
		}
	default:
		return StaticRoute{}, false
	}

	if pathArg != nil {
		if s, ok := stringLit(pathArg); ok {
			r.Path = s
		} else {
			r.Dynamic = true
		}
	} else {
		r.Dynamic = true
	}

	r.Group = optionGroup(call.Args, alias)
	if r.Group == "" {
		r.Group = ctrl.group
	}
	return r, true
}

// methodConst recovers an HTTPMethod from a qualified constant reference
// such as waypost.GET.
func methodConst(expr ast.Expr) (HTTPMethod, bool) {
	switch e := expr.(type) {
	case *ast.SelectorExpr:
		m, err := ParseHTTPMethod(e.Sel.Name)
		return m, err == nil
	case *ast.Ident:
		m, err := ParseHTTPMethod(e.Name)
		return m, err == nil
	default:
		return "", false
	}
}

// optionGroup finds a WithGroup("...") option among call arguments.
func optionGroup(args []ast.Expr, alias map[string]bool) string {
	for _, arg := range args {
		call, ok := arg.(*ast.CallExpr)
		if !ok {
			continue
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || sel.Sel.Name != "WithGroup" {
			continue
		}
		recv, ok := sel.X.(*ast.Ident)
		if !ok || !alias[recv.Name] {
			continue
		}
		if len(call.Args) == 1 {
			if s, ok := stringLit(call.Args[0]); ok {
				return s
			}
		}
	}
	return ""
}

func stringLit(expr ast.Expr) (string, bool) {
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	s, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	return s, true
}
