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

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gx-org/loopsched/cmd/loopsched/fixture"
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedfn"
)

// scheduleCmd lowers the demo pipeline under exactly the schedule a
// fixture file specifies: no auto-scheduling, just §6's top-level
// schedfn.Schedule entry point.
func scheduleCmd() *cobra.Command {
	var injectAsserts bool
	cmd := &cobra.Command{
		Use:   "schedule <fixture.yaml>",
		Short: "Lower the demo pipeline under a fixed schedule fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := fixture.Load(args[0])
			if err != nil {
				return err
			}
			env, outputs := demoBoxBlur()
			if err := p.Apply(env); err != nil {
				return errors.Wrap(err, "applying fixture schedules")
			}
			if len(p.Outputs) > 0 {
				outputs = p.Outputs
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
