package manifest

import (
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"go.uber.org/zap"

	"github.com/wippyai/loader-bridge/bridge"
	"github.com/wippyai/loader-bridge/errors"
	"github.com/wippyai/loader-bridge/lifecycle"
	"github.com/wippyai/loader-bridge/types"
)

var validate = validator.New()

// Manifest is a decoded registration manifest.
type Manifest struct {
	Loader    Loader
	Types     []Type     `validate:"unique=Name,dive"`
	Functions []Function `validate:"unique=Name,dive"`
	// Path is the file the manifest was read from, if any.
	Path string
}

// Loader configures the loader instance.
type Loader struct {
	Name           string   `validate:"required"`
	ExecutionPaths []string `validate:"dive,required"`
	Module         string
	TypePolicy     bridge.Policy
	FunctionPolicy bridge.Policy
}

// Type declares one entry of the loader's type namespace.
type Type struct {
	// Singleton is the evaluated singleton expression converted to a Go
	// value (nil, bool, int64, float64, string, []any or map[string]any).
	Singleton any
	Name      string `validate:"required"`
	Kind      types.Kind
}

// Function declares one function binding.
type Function struct {
	Name   string `validate:"required"`
	Export string
	Return string
	Params []bridge.Param `validate:"dive"`
}

// ExportName is the name the embedded runtime exports the function under.
func (f Function) ExportName() string {
	if f.Export != "" {
		return f.Export
	}
	return f.Name
}

type hclFile struct {
	Loader    *hclLoader     `hcl:"loader,block"`
	Types     []*hclType     `hcl:"type,block"`
	Functions []*hclFunction `hcl:"function,block"`
}

type hclLoader struct {
	Name           string     `hcl:"name,label"`
	ExecutionPaths []string   `hcl:"execution_paths,optional"`
	Module         string     `hcl:"module,optional"`
	Policy         *hclPolicy `hcl:"policy,block"`
}

type hclPolicy struct {
	Types     string `hcl:"types,optional"`
	Functions string `hcl:"functions,optional"`
}

type hclType struct {
	Name      string         `hcl:"name,label"`
	Kind      string         `hcl:"kind"`
	Singleton hcl.Expression `hcl:"singleton,optional"`
}

type hclFunction struct {
	Name   string      `hcl:"name,label"`
	Export string      `hcl:"export,optional"`
	Return string      `hcl:"return,optional"`
	Params []*hclParam `hcl:"param,block"`
}

type hclParam struct {
	Name string `hcl:"name,label"`
	Type string `hcl:"type"`
}

// Load reads and decodes the manifest at path. A loader without
// execution_paths searches the manifest's directory.
func Load(path string) (*Manifest, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ParseFailed("manifest "+path, err)
	}
	m, err := Parse(path, src)
	if err != nil {
		return nil, err
	}
	m.Path = path
	if len(m.Loader.ExecutionPaths) == 0 {
		m.Loader.ExecutionPaths = []string{filepath.Dir(path)}
	}
	return m, nil
}

// Parse decodes manifest source. filename is used in diagnostics only.
func Parse(filename string, src []byte) (*Manifest, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.ParseFailed("manifest "+filename, diags)
	}

	var raw hclFile
	if diags := gohcl.DecodeBody(f.Body, nil, &raw); diags.HasErrors() {
		return nil, errors.ParseFailed("manifest "+filename, diags)
	}
	if raw.Loader == nil {
		return nil, errors.InvalidData(errors.PhaseParse, []string{"loader"}, "manifest has no loader block")
	}

	m := &Manifest{
		Loader: Loader{
			Name:           raw.Loader.Name,
			ExecutionPaths: raw.Loader.ExecutionPaths,
			Module:         raw.Loader.Module,
			TypePolicy:     bridge.Reject,
			FunctionPolicy: bridge.Overwrite,
		},
	}
	if p := raw.Loader.Policy; p != nil {
		var err error
		if p.Types != "" {
			if m.Loader.TypePolicy, err = bridge.ParsePolicy(p.Types); err != nil {
				return nil, err
			}
		}
		if p.Functions != "" {
			if m.Loader.FunctionPolicy, err = bridge.ParsePolicy(p.Functions); err != nil {
				return nil, err
			}
		}
	}

	for _, t := range raw.Types {
		kind, err := types.Parse(t.Kind)
		if err != nil {
			return nil, err
		}
		singleton, err := evalSingleton(t.Name, t.Singleton)
		if err != nil {
			return nil, err
		}
		m.Types = append(m.Types, Type{Name: t.Name, Kind: kind, Singleton: singleton})
	}

	for _, fn := range raw.Functions {
		decl := Function{Name: fn.Name, Export: fn.Export, Return: fn.Return, Params: []bridge.Param{}}
		for _, p := range fn.Params {
			decl.Params = append(decl.Params, bridge.Param{Name: p.Name, Type: p.Type})
		}
		m.Functions = append(m.Functions, decl)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	Logger().Debug("manifest parsed",
		zap.String("file", filename),
		zap.String("loader", m.Loader.Name),
		zap.Int("types", len(m.Types)),
		zap.Int("functions", len(m.Functions)))
	return m, nil
}

func evalSingleton(typeName string, expr hcl.Expression) (any, error) {
	if expr == nil {
		return nil, nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, errors.New(errors.PhaseParse, errors.KindInvalidData).
			Path("type", typeName, "singleton").
			Cause(diags).
			Build()
	}
	return toNative([]string{"type", typeName, "singleton"}, v)
}

// Validate checks required fields and name uniqueness.
func (m *Manifest) Validate() error {
	if err := validate.Struct(m); err != nil {
		return errors.Wrap(errors.PhaseValidate, errors.KindInvalidInput, err, "manifest")
	}
	return nil
}

// Options returns the bridge options the loader block asks for.
func (m *Manifest) Options() []bridge.Option {
	return []bridge.Option{
		bridge.WithTypePolicy(m.Loader.TypePolicy),
		bridge.WithFunctionPolicy(m.Loader.FunctionPolicy),
	}
}

// State builds the loader's lifecycle state from its execution paths.
func (m *Manifest) State() (*lifecycle.State, error) {
	return lifecycle.Initialize(m.Loader.ExecutionPaths...)
}
