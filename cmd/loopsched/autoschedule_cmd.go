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

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gx-org/loopsched/autosched"
	"github.com/gx-org/loopsched/cmd/loopsched/fixture"
	"github.com/gx-org/loopsched/config"
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedfn"
)

// autoscheduleCmd runs the partitioner and schedule emitter over the
// demo pipeline before lowering it, rather than relying on a fixture's
// own per-function schedules. A fixture file is optional here; when
// given, only its outputs/params blocks are honoured (per-function
// schedules are what the auto-scheduler itself is computing).
func autoscheduleCmd() *cobra.Command {
	var injectAsserts bool
	cmd := &cobra.Command{
		Use:   "autoschedule [fixture.yaml]",
		Short: "Auto-schedule and lower the demo pipeline",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, outputs := demoBoxBlur()
			params, err := config.FromEnv()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				p, err := fixture.Load(args[0])
				if err != nil {
					return err
				}
				if len(p.Outputs) > 0 {
					outputs = p.Outputs
				}
				if p.Params != nil {
					params = p.MachineParams()
				}
			}

			flags, err := config.FlagsFromEnv()
			if err != nil {
				return err
			}
			if flags.Naive {
				fmt.Println("HL_AUTO_NAIVE set: skipping the partitioner, scheduling as given")
			} else {
				order, err := realizationOrder(outputs, env)
				if err != nil {
					return err
				}
				// autosched.Run mutates every function's Schedule in env directly;
				// its returned Plan/roots are for callers that only want the final
				// loop nests, which the CLI doesn't need here.
				if _, _, err := autosched.Run(outputs, order, env, demoFuncValueBounds(), params); err != nil {
					return err
				}
			}

			result, err := schedfn.Schedule(outputs, env, injectAsserts)
			if err != nil {
				return err
			}
			fmt.Println(ir.SprintStmt(result.Root, 0))
			fmt.Printf("any_memoized: %t\n", result.AnyMemoized)
			if result.Warnings != nil {
				fmt.Printf("warnings: %v\n", result.Warnings)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&injectAsserts, "inject-asserts", false, "inject explicit-bounds assertions (§6)")
	return cmd
}
