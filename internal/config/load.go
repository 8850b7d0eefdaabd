package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// Load reads a configuration from a .cue file or a directory of .cue
// files. Files in a directory must share a package clause.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing config: %v", err)}
	}

	ctx := cuecontext.New()
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading config: %v", err)}
		}
		return decode(ctx, ctx.CompileBytes(data, cue.Filename(path)))
	}

	files, err := filepath.Glob(filepath.Join(path, "*.cue"))
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("scanning config directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: path})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	if inst := instances[0]; inst.Err != nil {
		return nil, fromCUE(ErrCodeLoadFailed, inst.Err)
	}
	return decode(ctx, ctx.BuildInstance(instances[0]))
}

// Parse reads a configuration from CUE source. filename is used in error
// positions only.
func Parse(src []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()
	return decode(ctx, ctx.CompileBytes(src, cue.Filename(filename)))
}

func decode(ctx *cue.Context, v cue.Value) (*Config, error) {
	if err := v.Err(); err != nil {
		return nil, fromCUE(ErrCodeBuildFailed, err)
	}

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fromCUE(ErrCodeBuildFailed, err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fromCUE(ErrCodeSchema, err)
	}

	var raw rawConfig
	if err := unified.Decode(&raw); err != nil {
		return nil, fromCUE(ErrCodeSchema, err)
	}

	timeout, err := time.ParseDuration(raw.Endpoint.Timeout)
	if err != nil || timeout <= 0 {
		return nil, &LoadError{
			Code:    ErrCodeInvalidTimeout,
			Message: fmt.Sprintf("endpoint.timeout %q is not a positive duration", raw.Endpoint.Timeout),
			Pos:     v.LookupPath(cue.ParsePath("endpoint.timeout")).Pos(),
		}
	}

	seen := make(map[string]bool, len(raw.Extensions))
	for i, name := range raw.Extensions {
		if seen[name] {
			return nil, &LoadError{
				Code:    ErrCodeDuplicate,
				Message: fmt.Sprintf("extension %q is listed more than once", name),
				Pos:     v.LookupPath(cue.MakePath(cue.Str("extensions"), cue.Index(i))).Pos(),
			}
		}
		seen[name] = true
	}

	return &Config{
		Endpoint: Endpoint{
			URL:     raw.Endpoint.URL,
			Timeout: timeout,
			Method:  raw.Endpoint.Method,
			Accept:  raw.Endpoint.Accept,
		},
		Extensions:        raw.Extensions,
		Store:             raw.Store,
		StrictComposition: raw.StrictComposition,
	}, nil
}
