// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command loopsched drives the scheduling and lowering core over a
// small built-in demo pipeline, for local experimentation with
// schedule fixtures. It is a peripheral convenience, not part of the
// core library: every real decision it makes is delegated to schedfn
// and autosched.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "loopsched",
		Short: "Schedule and lower the built-in demo pipeline",
	}
	root.AddCommand(scheduleCmd())
	root.AddCommand(autoscheduleCmd())
	return root
}
