package classifier

import (
	"path/filepath"

	"phishguard/pkg/logger"
)

// ModelFile pairs a registry name with its artifact file name.
type ModelFile struct {
	Name string
	File string
}

// DefaultModels is the registry order used for every response.
var DefaultModels = []ModelFile{
	{Name: "random_forest", File: "random_forest.json"},
	{Name: "xgboost", File: "xgboost.json"},
	{Name: "logistic_regression", File: "logistic_regression.json"},
}

type Entry struct {
	Name  string
	Model Model // nil when Err is set
	Err   error
}

func (e Entry) Available() bool { return e.Model != nil }

// Registry is built once and never mutated, so it needs no locking.
type Registry struct {
	entries []Entry
}

// LoadRegistry loads each file from dir. A file that fails to load leaves
// its entry unavailable; the registry is still returned.
func LoadRegistry(dir string, files []ModelFile, expected []string, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	r := &Registry{entries: make([]Entry, 0, len(files))}
	for _, f := range files {
		path := filepath.Join(dir, f.File)
		m, err := LoadModel(path, expected)
		if err != nil {
			log.Warn("model unavailable", "model", f.Name, "path", path, "error", err)
			r.entries = append(r.entries, Entry{Name: f.Name, Err: err})
			continue
		}
		log.Info("model loaded", "model", f.Name, "path", path, "features", m.NumFeatures())
		r.entries = append(r.entries, Entry{Name: f.Name, Model: named{Model: m, name: f.Name}})
	}
	return r
}

// NewRegistry wraps already-built models, mainly for tests and embedding.
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{entries: make([]Entry, len(entries))}
	for i, e := range entries {
		if e.Model != nil {
			e.Model = named{Model: e.Model, name: e.Name}
		}
		r.entries[i] = e
	}
	return r
}

func (r *Registry) Entries() []Entry { return append([]Entry(nil), r.entries...) }

func (r *Registry) Available() []Entry {
	var out []Entry
	for _, e := range r.entries {
		if e.Available() {
			out = append(out, e)
		}
	}
	return out
}

func (r *Registry) Unavailable() []string {
	var out []string
	for _, e := range r.entries {
		if !e.Available() {
			out = append(out, e.Name)
		}
	}
	return out
}

// Status maps each model name to "loaded" or "unavailable".
func (r *Registry) Status() map[string]string {
	out := make(map[string]string, len(r.entries))
	for _, e := range r.entries {
		if e.Available() {
			out[e.Name] = "loaded"
		} else {
			out[e.Name] = "unavailable"
		}
	}
	return out
}

// named reports the registry name regardless of the artifact's own name field.
type named struct {
	Model
	name string
}

func (n named) Name() string { return n.name }
