// Package loader compiles a root module and its imports into one unit
// and evaluates it inside a runtime.
package loader

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/scriptable/jsbridge/internal/core"
	"github.com/scriptable/jsbridge/internal/jsapi"
)

const (
	storeNamespace = "jsbridge-store"
	stdNamespace   = "jsbridge-std"
)

// Loader resolves module sources through a core.SourceLoader.
type Loader struct {
	src core.SourceLoader
	std bool
}

// New returns a Loader reading from src, or from the file system when src
// is nil. std controls whether the std and os modules can be imported.
func New(src core.SourceLoader, std bool) *Loader {
	if src == nil {
		src = Files{}
	}
	return &Loader{src: src, std: std}
}

// Files reads modules from the local file system.
type Files struct{}

func (Files) LoadModule(p string) (string, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compile reads the module at modulePath and bundles it with everything it
// imports. The result is a script that runs the module body once.
func (l *Loader) Compile(modulePath string) (string, error) {
	root := path.Clean(filepath.ToSlash(modulePath))
	source, err := l.src.LoadModule(modulePath)
	if err != nil {
		return "", &core.LoadError{Path: modulePath, Err: fmt.Errorf("%w: %v", core.ErrModuleNotFound, err)}
	}

	plugins := []api.Plugin{l.storePlugin(root, source)}
	if l.std {
		plugins = append([]api.Plugin{stdPlugin()}, plugins...)
	}

	result := api.Build(api.BuildOptions{
		EntryPoints: []string{root},
		Bundle:      true,
		Write:       false,
		Format:      api.FormatIIFE,
		Platform:    api.PlatformNeutral,
		Target:      api.ES2020,
		TreeShaking: api.TreeShakingFalse,
		LogLevel:    api.LogLevelSilent,
		Define: map[string]string{
			"import.meta.url":  metaURL(root),
			"import.meta.main": "true",
		},
		Plugins: plugins,
	})

	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			msgs = append(msgs, e.Text)
		}
		return "", &core.LoadError{Path: modulePath, Err: fmt.Errorf("compiling: %s", strings.Join(msgs, "; "))}
	}
	if len(result.OutputFiles) == 0 {
		return "", &core.LoadError{Path: modulePath, Err: fmt.Errorf("compiling produced no output")}
	}
	return string(result.OutputFiles[0].Contents), nil
}

// Evaluate runs a compiled unit. A thrown exception is reported as a
// LoadError carrying the exception record.
func Evaluate(rt core.JSRuntime, modulePath, compiled string) error {
	out, err := rt.EvalString(jsapi.BridgeGlobal + ".evaluate(function() {\n\"use strict\";\n" + compiled + "\n})")
	if err != nil {
		return &core.LoadError{Path: modulePath, Err: fmt.Errorf("%w: %v", core.ErrScriptException, err)}
	}
	rec, err := jsapi.ParseException(out)
	if err != nil {
		return &core.LoadError{Path: modulePath, Err: err}
	}
	if rec != nil {
		exc := core.ExceptionFromRecord(toAny(rec))
		return &core.LoadError{Path: modulePath, Exception: &exc, Err: core.ErrScriptException}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func metaURL(p string) string {
	u := url.URL{Scheme: "file", Path: p}
	if !strings.HasPrefix(p, "/") {
		u.Path = "/" + p
	}
	b, _ := json.Marshal(u.String())
	return string(b)
}

// storePlugin resolves the entry point and relative imports against the
// source loader. The entry source was already read by Compile.
func (l *Loader) storePlugin(root, rootSource string) api.Plugin {
	return api.Plugin{
		Name: "jsbridge-store",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: ".*"}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				if args.Kind == api.ResolveEntryPoint {
					return api.OnResolveResult{Path: root, Namespace: storeNamespace}, nil
				}
				if args.Namespace != storeNamespace || !isRelative(args.Path) {
					return api.OnResolveResult{}, nil
				}
				p := args.Path
				if !strings.HasPrefix(p, "/") {
					p = path.Join(path.Dir(args.Importer), p)
				}
				return api.OnResolveResult{Path: path.Clean(p), Namespace: storeNamespace}, nil
			})
			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: storeNamespace}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				src := rootSource
				if args.Path != root {
					s, err := l.src.LoadModule(args.Path)
					if err != nil {
						return api.OnLoadResult{}, fmt.Errorf("%w: %s: %v", core.ErrModuleNotFound, args.Path, err)
					}
					src = s
				}
				return api.OnLoadResult{Contents: &src, Loader: loaderFor(args.Path)}, nil
			})
		},
	}
}

// stdPlugin maps "std" and "os" imports to the Go-backed module objects.
func stdPlugin() api.Plugin {
	return api.Plugin{
		Name: "jsbridge-std",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `^(std|os)$`}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				return api.OnResolveResult{Path: args.Path, Namespace: stdNamespace}, nil
			})
			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: stdNamespace}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				src := stdModuleSource(args.Path)
				return api.OnLoadResult{Contents: &src, Loader: api.LoaderJS}, nil
			})
		},
	}
}

func stdModuleSource(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "const m = globalThis.%s[%q];\n", jsapi.ModulesGlobal, name)
	for _, export := range jsapi.Modules[name] {
		fmt.Fprintf(&b, "export const %s = m.%s;\n", export, export)
	}
	b.WriteString("export default m;\n")
	return b.String()
}

func isRelative(p string) bool {
	return strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../") || strings.HasPrefix(p, "/")
}

func loaderFor(p string) api.Loader {
	switch path.Ext(p) {
	case ".ts", ".mts":
		return api.LoaderTS
	case ".json":
		return api.LoaderJSON
	default:
		return api.LoaderJS
	}
}
