//+build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Runs go mod download and then builds the binary.
func Build() error {
	if err := sh.Run("go", "mod", "download"); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-o", "adsb-intercept", "./cmd/adsb-intercept")
}

// Runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Build a docker image for amd64
func Docker() error {
	mg.Deps(Test)
	if err := sh.RunV("docker", "build", "-t", "slimbean/adsb-intercept:latest", "-f", "cmd/adsb-intercept/Dockerfile", "."); err != nil {
		return err
	}
	return nil
}
