package recipe

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

//go:embed builtin.cue
var builtinCUE []byte

// LoadMode controls how errors are handled during recipe loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Library is a compiled set of recipes, keyed by ID.
type Library struct {
	recipes map[string]*Recipe
}

// Get returns the recipe with the given ID.
func (l *Library) Get(id string) (*Recipe, bool) {
	r, ok := l.recipes[id]
	return r, ok
}

// List returns all recipes sorted by ID.
func (l *Library) List() []*Recipe {
	out := make([]*Recipe, 0, len(l.recipes))
	for _, r := range l.recipes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Builtin compiles the embedded recipe library. The embedded file is
// part of the binary; a compile failure here is a build defect, so the
// error is returned rather than swallowed but callers may treat it as
// fatal.
func Builtin() (*Library, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(builtinCUE, cue.Filename("builtin.cue"))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	lib, errs := compileLibrary(value, LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return lib, nil
}

// LoadDir loads user recipes from a directory of CUE files and merges
// them over the built-in library. User recipes with the same ID shadow
// built-ins.
//
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadDir(dir string, mode LoadMode) (*Library, []error) {
	lib, err := Builtin()
	if err != nil {
		return nil, []error{err}
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		// No user recipe directory is the common case.
		return lib, nil
	}
	if err != nil {
		return nil, []error{fmt.Errorf("accessing recipe directory: %w", err)}
	}
	if !info.IsDir() {
		return nil, []error{fmt.Errorf("not a directory: %s", dir)}
	}

	cueFiles, err := findCUEFiles(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("scanning recipe directory: %w", err)}
	}
	if len(cueFiles) == 0 {
		return lib, nil
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, []error{fmt.Errorf("no CUE instances loaded from %s", dir)}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{fmt.Errorf("loading CUE files: %w", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}

	user, errs := compileLibrary(value, mode)
	if len(errs) > 0 && mode == LoadModeFailFast {
		return nil, errs
	}
	if user != nil {
		for id, r := range user.recipes {
			lib.recipes[id] = r
		}
	}
	return lib, errs
}

// compileLibrary extracts and compiles every entry under "recipes".
func compileLibrary(value cue.Value, mode LoadMode) (*Library, []error) {
	var errs []error
	lib := &Library{recipes: make(map[string]*Recipe)}

	recipesVal := value.LookupPath(cue.ParsePath("recipes"))
	if !recipesVal.Exists() {
		return lib, []error{fmt.Errorf("no \"recipes\" struct found")}
	}

	iter, iterErr := recipesVal.Fields()
	if iterErr != nil {
		return lib, []error{fmt.Errorf("iterating recipes: %w", iterErr)}
	}

	for iter.Next() {
		r, compileErr := CompileRecipe(iter.Value())
		if compileErr != nil {
			errs = append(errs, fmt.Errorf("recipes.%s: %w", iter.Label(), compileErr))
			if mode == LoadModeFailFast {
				return lib, errs
			}
			continue
		}
		// Path-derived IDs keep quotes for labels like "my-recipe";
		// the iterator label is always the bare name.
		r.ID = iter.Label()
		lib.recipes[r.ID] = r
	}

	return lib, errs
}

// findCUEFiles walks the directory and returns all .cue file paths.
func findCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
