// Package main provides build targets for dynstep using Mage.
//
// Usage:
//
//	mage build   Compile the dynstep binary to bin/
//	mage test    Run all tests
//	mage bench   Run the stepper benchmarks
//	mage lint    Run go vet and golangci-lint
//	mage clean   Remove build artifacts and the default data directory
//	mage install Install dynstep to GOPATH/bin
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "dynstep"
	binaryDir  = "bin"
	cmdDir     = "./cmd/dynstep"
	dataDir    = ".dynstep"
)

// Build compiles the dynstep binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Bench runs the benchmarks of the integrators package.
func Bench() error {
	return sh.RunV("go", "test", "-run", "^$", "-bench", ".", "-benchmem", "./internal/integrators/")
}

// Lint runs go vet, then golangci-lint.
func Lint() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	return sh.RunV("golangci-lint", "run", "./...")
}

// Install builds and installs dynstep to GOPATH/bin.
func Install() error {
	mg.Deps(Test)
	return sh.RunV("go", "install", cmdDir)
}

// Clean removes build artifacts and locally stored runs.
func Clean() error {
	if err := sh.Rm(binaryDir); err != nil {
		return err
	}
	return sh.Rm(dataDir)
}
