// SPDX-License-Identifier: MPL-2.0

// Package container drives the Docker engine for the build utilities launcher.
//
// The Engine interface covers the operations a launch needs: Login, Pull, Run
// (attached or detached), Logs, Wait and Remove. DockerEngine implements it on
// top of the docker CLI through BaseCLIEngine, which owns argument
// construction and command execution and lets tests inject the exec function.
//
// Environment talks to the daemon through the Docker SDK to check that it is
// reachable and to report its server version before any CLI call is made.
package container
