// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Thermoprof - Thermal profile provisioning tool
//
// Writes thermal profile tables to a controller over its register console.

package main

import (
	"fmt"
	"os"

	"github.com/Thermoquad/thermoprof/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
