package host

import (
	"slices"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// ExportInfo describes one export of a guest module.
type ExportInfo struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Params  []string `json:"params,omitempty"`
	Results []string `json:"results,omitempty"`
}

// Signature renders a function export as "(i32, i32) -> (i64)".
func (e ExportInfo) Signature() string {
	if e.Kind != "func" {
		return e.Kind
	}
	return "(" + strings.Join(e.Params, ", ") + ") -> (" + strings.Join(e.Results, ", ") + ")"
}

// ModuleInfo stores metadata about a loaded guest module.
type ModuleInfo struct {
	Name    string       `json:"name"`
	Source  string       `json:"source"`
	Size    int          `json:"size"`
	Exports []ExportInfo `json:"exports"`
	Imports []string     `json:"imports,omitempty"`
}

// Export returns the named export.
func (mi *ModuleInfo) Export(name string) (ExportInfo, bool) {
	i := slices.IndexFunc(mi.Exports, func(e ExportInfo) bool { return e.Name == name })
	if i < 0 {
		return ExportInfo{}, false
	}
	return mi.Exports[i], true
}

// Registry manages metadata of the modules a Manager has loaded.
type Registry struct {
	modules map[string]*ModuleInfo
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*ModuleInfo)}
}

// Register adds or replaces module metadata.
func (r *Registry) Register(info *ModuleInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.modules[info.Name] = info
}

// Get retrieves module metadata by name.
func (r *Registry) Get(name string) (*ModuleInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.modules[name]
	return info, ok
}

// List returns all registered modules ordered by name.
func (r *Registry) List() []*ModuleInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*ModuleInfo, 0, len(r.modules))
	for _, info := range r.modules {
		result = append(result, info)
	}
	slices.SortFunc(result, func(a, b *ModuleInfo) int { return strings.Compare(a.Name, b.Name) })
	return result
}

// describe collects export and import metadata from a compiled module.
func describe(name, source string, size int, compiled wazero.CompiledModule) *ModuleInfo {
	info := &ModuleInfo{Name: name, Source: source, Size: size}

	for exportName, def := range compiled.ExportedFunctions() {
		info.Exports = append(info.Exports, ExportInfo{
			Name:    exportName,
			Kind:    "func",
			Params:  typeNames(def.ParamTypes()),
			Results: typeNames(def.ResultTypes()),
		})
	}
	for exportName := range compiled.ExportedMemories() {
		info.Exports = append(info.Exports, ExportInfo{Name: exportName, Kind: "memory"})
	}
	slices.SortFunc(info.Exports, func(a, b ExportInfo) int { return strings.Compare(a.Name, b.Name) })

	for _, def := range compiled.ImportedFunctions() {
		if module, fn, ok := def.Import(); ok {
			info.Imports = append(info.Imports, module+"."+fn)
		}
	}

	return info
}

func typeNames(types []api.ValueType) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = api.ValueTypeName(t)
	}
	return names
}
