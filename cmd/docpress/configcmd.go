package main

import (
	"fmt"

	"github.com/alnah/go-docpress/internal/yamlutil"
)

// runConfigCmd prints the effective configuration as YAML after every
// layer (file, environment, flags) has been applied.
func runConfigCmd(args []string, deps *Dependencies) error {
	flags, err := parseConfigFlags(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(flags, deps)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	out, err := yamlutil.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	_, err = deps.Stdout.Write(out)
	return err
}
