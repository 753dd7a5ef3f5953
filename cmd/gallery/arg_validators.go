package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func requireAtLeastArgs(min int, message string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < min {
			return errors.New(message)
		}
		return nil
	}
}

func requireExactlyArgs(count int, message string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != count {
			return errors.New(message)
		}
		return nil
	}
}

func requirePosition(cmd *cobra.Command, args []string) error {
	if err := requireExactlyArgs(1, "position is required")(cmd, args); err != nil {
		return err
	}
	_, err := parsePosition(args[0])
	return err
}

func parsePosition(raw string) (int, error) {
	position, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || position < 0 {
		return 0, fmt.Errorf("invalid position %q: expected a non-negative integer", raw)
	}
	return position, nil
}
