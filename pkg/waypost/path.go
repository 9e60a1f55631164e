package waypost

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/google/uuid"
)

// PartKind classifies a single segment of a route path pattern.
type PartKind int

const (
	StaticPart PartKind = iota
	ParamPart
	WildcardPart
)

// PathPart is one parsed segment of a route path.
type PathPart struct {
	Kind PartKind

	// Value is the literal text for static parts, or the parameter name
	// for parameter parts.
	Value string

	// ParamType is the declared parameter type ("int", "uuid", ...).
	// Empty for untyped parameters and non-parameter parts.
	ParamType string
}

// Path pattern grammar: /static/{name}/{name:type}/{*}
// The ':' and '*' characters are reserved for parameter syntax and may not
// appear in static segments.
var pathLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Slash", Pattern: `/`},
	{Name: "LBrace", Pattern: `\{`},
	{Name: "RBrace", Pattern: `\}`},
	{Name: "Colon", Pattern: `:`},
	{Name: "Star", Pattern: `\*`},
	{Name: "Literal", Pattern: `[^/{}:*]+`},
})

type pathParam struct {
	Star bool   `parser:"( @Star |"`
	Name string `parser:"@Literal"`
	Type string `parser:"( Colon @Literal )? )"`
}

type pathSegment struct {
	Param  *pathParam `parser:"LBrace @@ RBrace"`
	Static string     `parser:"| @Literal"`
}

type pathPattern struct {
	Segments []*pathSegment `parser:"( Slash @@? )+"`
}

var pathParser = participle.MustBuild[pathPattern](
	participle.Lexer(pathLexer),
)

// paramTypes is the closed set of parameter types a pattern may declare.
var paramTypes = map[string]bool{
	"":       true,
	"string": true,
	"int":    true,
	"float":  true,
	"bool":   true,
	"uuid":   true,
}

// RoutePath is a route path pattern such as "/users/{id:int}". The zero
// value is not a valid pattern.
type RoutePath string

// Raw returns the pattern as written at the declaration site.
func (p RoutePath) Raw() string {
	return string(p)
}

// Parts parses the pattern into its segments. A missing leading slash is
// tolerated; empty segments from repeated or trailing slashes are dropped.
func (p RoutePath) Parts() ([]PathPart, error) {
	raw := string(p)
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	pattern, err := pathParser.ParseString("", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid path pattern %q: %w", string(p), err)
	}
	var parts []PathPart
	for _, seg := range pattern.Segments {
		switch {
		case seg == nil:
			// Empty segment between slashes, dropped.
		case seg.Param != nil && seg.Param.Star:
			parts = append(parts, PathPart{Kind: WildcardPart, Value: "*"})
		case seg.Param != nil:
			parts = append(parts, PathPart{
				Kind:      ParamPart,
				Value:     seg.Param.Name,
				ParamType: seg.Param.Type,
			})
		default:
			parts = append(parts, PathPart{Kind: StaticPart, Value: seg.Static})
		}
	}
	return parts, nil
}

// Validate checks the pattern parses, all parameter types are known, and no
// parameter name repeats within the pattern.
func (p RoutePath) Validate() error {
	parts, err := p.Parts()
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, part := range parts {
		if part.Kind != ParamPart {
			continue
		}
		if part.Value == "" {
			return fmt.Errorf("invalid path pattern %q: empty parameter name", string(p))
		}
		if !paramTypes[part.ParamType] {
			return fmt.Errorf("invalid path pattern %q: unknown parameter type %q", string(p), part.ParamType)
		}
		if seen[part.Value] {
			return fmt.Errorf("invalid path pattern %q: duplicate parameter %q", string(p), part.Value)
		}
		seen[part.Value] = true
	}
	return nil
}

// Normalized returns the canonical form of the pattern: a single leading
// slash, no repeated slashes, and no trailing slash unless the path is
// exactly "/".
func (p RoutePath) Normalized() (RoutePath, error) {
	parts, err := p.Parts()
	if err != nil {
		return "", err
	}
	if len(parts) == 0 {
		return "/", nil
	}
	var b strings.Builder
	for _, part := range parts {
		b.WriteByte('/')
		switch part.Kind {
		case ParamPart:
			b.WriteByte('{')
			b.WriteString(part.Value)
			if part.ParamType != "" {
				b.WriteByte(':')
				b.WriteString(part.ParamType)
			}
			b.WriteByte('}')
		case WildcardPart:
			b.WriteString("{*}")
		default:
			b.WriteString(part.Value)
		}
	}
	return RoutePath(b.String()), nil
}

// Identity returns the duplicate-detection key for the pattern: the
// normalized form with every parameter reduced to a positional placeholder,
// so parameter names and types do not distinguish routes.
func (p RoutePath) Identity() (string, error) {
	parts, err := p.Parts()
	if err != nil {
		return "", err
	}
	if len(parts) == 0 {
		return "/", nil
	}
	var b strings.Builder
	for _, part := range parts {
		b.WriteByte('/')
		switch part.Kind {
		case ParamPart:
			b.WriteString("{}")
		case WildcardPart:
			b.WriteString("{*}")
		default:
			b.WriteString(part.Value)
		}
	}
	return b.String(), nil
}

// JoinPaths concatenates a controller base path and a route path. The result
// is normalized by the aggregator.
func JoinPaths(base, sub RoutePath) RoutePath {
	return RoutePath(string(base) + "/" + string(sub))
}

// ValidateParamValue checks a raw path parameter value against a declared
// parameter type.
func ValidateParamValue(paramType, raw string) error {
	switch paramType {
	case "", "string":
		return nil
	case "int":
		_, err := strconv.Atoi(raw)
		return err
	case "float":
		_, err := strconv.ParseFloat(raw, 64)
		return err
	case "bool":
		_, err := strconv.ParseBool(raw)
		return err
	case "uuid":
		_, err := uuid.Parse(raw)
		return err
	default:
		return fmt.Errorf("unknown parameter type %q", paramType)
	}
}
