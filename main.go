// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/duckietown/dt-build-utils/cmd/buildutils"

func main() {
	cmd.Execute()
}
