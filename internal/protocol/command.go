/*
Copyright 2024 BattleLink Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package protocol

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrEmptyCommand is returned when operator input holds no command
var ErrEmptyCommand = errors.New("empty command")

// Command is an outbound line sent to the controller. It is opaque to the transport.
type Command string

// CommandStart asks the controller to begin a game
const CommandStart Command = "START"

// SetDifficulty builds the difficulty selection command
func SetDifficulty(level int) Command {
	return Command(fmt.Sprintf("SET DIFFICULTY=%d", level))
}

// DifficultyFromSlider rounds a continuous slider value to a difficulty level.
// Halves round to the nearest even level.
func DifficultyFromSlider(v float64) int {
	return int(math.RoundToEven(v))
}

// String returns the command text without terminator
func (c Command) String() string {
	return string(c)
}

// ParseCommand converts operator input into a command.
//
//	start           -> START
//	difficulty <n>  -> SET DIFFICULTY=<n>
//
// Anything else is passed through verbatim.
func ParseCommand(text string) (Command, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyCommand
	}

	fields := strings.Fields(text)
	switch strings.ToLower(fields[0]) {
	case "start":
		if len(fields) == 1 {
			return CommandStart, nil
		}
	case "difficulty":
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: difficulty <level>")
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return "", fmt.Errorf("invalid difficulty %q: %w", fields[1], err)
		}
		return SetDifficulty(DifficultyFromSlider(v)), nil
	}

	return Command(text), nil
}
