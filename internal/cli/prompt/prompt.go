// Package prompt wraps promptui for cfdpctl's interactive prompts, used by
// `put` to fill in fields the operator left off the command line.
package prompt

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the operator cancels a prompt (Ctrl+C).
var ErrAborted = errors.New("aborted")

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		return ErrAborted
	}
	return err
}

// InputRequired prompts for non-empty text input.
func InputRequired(label string) (string, error) {
	p := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if input == "" {
				return fmt.Errorf("required")
			}
			return nil
		},
	}
	result, err := p.Run()
	return result, wrapError(err)
}

// InputUint64 prompts for a uint64, such as an entity ID.
func InputUint64(label string, defaultValue uint64) (uint64, error) {
	p := promptui.Prompt{
		Label:   label,
		Default: strconv.FormatUint(defaultValue, 10),
		Validate: func(input string) error {
			_, err := strconv.ParseUint(input, 10, 64)
			if err != nil {
				return fmt.Errorf("must be a non-negative integer")
			}
			return nil
		},
	}
	result, err := p.Run()
	if err != nil {
		return 0, wrapError(err)
	}
	value, _ := strconv.ParseUint(result, 10, 64)
	return value, nil
}

// Confirm prompts for yes/no confirmation.
func Confirm(label string, defaultYes bool) (bool, error) {
	suffix := "y/N"
	if defaultYes {
		suffix = "Y/n"
	}
	p := promptui.Prompt{Label: fmt.Sprintf("%s [%s]", label, suffix), IsConfirm: true}
	result, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		if result == "" {
			return defaultYes, nil
		}
		return false, wrapError(err)
	}
	return true, nil
}
