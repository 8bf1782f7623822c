// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package refactor

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/xerrors"
)

// A Config is the build configuration used to load packages.
type Config struct {
	// BuildTags is a list of build tags to set for this configuration.
	//
	// Some build tags are propagated specially:
	//
	// - GOOS and GOARCH build tags control the GOOS/GOARCH environment
	// variables.
	//
	// - The "race" build tag controls the -race flag.
	//
	// - The "cgo" and "!cgo" build tags control the CGO_ENABLED environment
	// variable.
	BuildTags []string
}

// NewConfig returns a Config with the given build tags.
func NewConfig(buildTags ...string) Config {
	return Config{BuildTags: buildTags}
}

func (c Config) String() string {
	return strings.Join(c.BuildTags, ",")
}

func readJSON(cmd *exec.Cmd, out any) error {
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return err
	}
	return json.Unmarshal(stdout.Bytes(), out)
}

type goosGoarch struct {
	GOOS         string
	GOARCH       string
	CgoSupported bool
}

var platformsOnce struct {
	once sync.Once
	ps   []goosGoarch
	err  error
}

func platforms(goBinary string) ([]goosGoarch, error) {
	platformsOnce.once.Do(func() {
		var platforms []goosGoarch
		cmd := exec.Command(goBinary, "tool", "dist", "list", "-json")
		if err := readJSON(cmd, &platforms); err != nil {
			platformsOnce.err = xerrors.Errorf("getting GOOS/GOARCH values: %w", err)
			return
		}
		platformsOnce.ps = platforms
	})
	return platformsOnce.ps, platformsOnce.err
}

// flagsEnvs returns the flags and environment variables to pass to the go
// command to produce this build configuration.
func (c Config) flagsEnvs(goBinary string) (flags, envs []string, err error) {
	if len(c.BuildTags) == 0 {
		return nil, nil, nil
	}
	plats, err := platforms(goBinary)
	if err != nil {
		return nil, nil, err
	}
	gooses := make(map[string]bool)
	goarches := make(map[string]bool)
	for _, plat := range plats {
		gooses[plat.GOOS] = true
		goarches[plat.GOARCH] = true
	}

	var flagTags []string
	haveEnv := make(map[string]string)
	addEnv := func(k, v string) error {
		if v2, ok := haveEnv[k]; ok {
			if v == v2 {
				return nil
			}
			return xerrors.Errorf("conflicting %s values: %s and %s", k, v, v2)
		}
		haveEnv[k] = v
		envs = append(envs, k+"="+v)
		return nil
	}
	for _, tag := range c.BuildTags {
		var err error
		switch {
		case gooses[tag]:
			err = addEnv("GOOS", tag)
		case goarches[tag]:
			err = addEnv("GOARCH", tag)
		case tag == "cgo":
			err = addEnv("CGO_ENABLED", "1")
		case tag == "!cgo":
			err = addEnv("CGO_ENABLED", "0")
		case tag == "race":
			flags = append(flags, "-race")
		default:
			flagTags = append(flagTags, tag)
		}
		if err != nil {
			return nil, nil, err
		}
	}
	if len(flagTags) > 0 {
		flags = append(flags, "-tags="+strings.Join(flagTags, ","))
	}
	return flags, envs, nil
}
