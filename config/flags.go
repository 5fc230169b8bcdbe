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

package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

// AutoSchedulerFlags are the boolean driver switches named in §6,
// distinct from MachineParams in that they change which codepath the
// driver runs rather than tuning a cost model constant.
type AutoSchedulerFlags struct {
	// Naive makes the autoschedule command skip the partitioner and
	// emitter entirely: every function keeps the schedule the caller
	// gave it (the inline default if it was never scheduled).
	Naive bool `env:"HL_AUTO_NAIVE"`
	// GPU is parsed from the environment but read by no code in this
	// module; the emitter never changes a dim's Device.
	GPU bool `env:"HL_AUTO_GPU"`
	// Sweep is parsed from the environment but read by no code in this
	// module; the tile-size search (§4.7) always scores every candidate
	// in the search set, keeps the best, and logs nothing.
	Sweep bool `env:"HL_AUTO_SWEEP"`
	// Rand is parsed from the environment but read by no code in this
	// module; ties between equal-benefit options always go to the first
	// one encountered.
	Rand bool `env:"HL_AUTO_RAND"`
}

// FlagsFromEnv loads AutoSchedulerFlags from the environment.
func FlagsFromEnv() (AutoSchedulerFlags, error) {
	var f AutoSchedulerFlags
	if err := env.Parse(&f); err != nil {
		return f, errors.Wrap(err, "parsing HL_AUTO_* flag environment variables")
	}
	return f, nil
}
