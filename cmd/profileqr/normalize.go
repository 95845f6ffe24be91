package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/profileqr/internal/app"
	"github.com/MrSnakeDoc/profileqr/internal/config"
	"github.com/MrSnakeDoc/profileqr/internal/identifier"
)

type normalizeLine struct {
	Input  string                 `json:"input"`
	Result *identifier.Result     `json:"result,omitempty"`
	Error  *identifier.InputError `json:"error,omitempty"`
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <input>...",
		Short: "Normalize and score profile references, one JSON line per input",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runNormalize,
	}
}

func runNormalize(cmd *cobra.Command, args []string) error {
	pipeline, err := app.NewPipeline(config.Load())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	failed := 0
	for _, input := range args {
		line := normalizeLine{Input: input}
		res, err := pipeline.Process(input)
		if err != nil {
			var inputErr *identifier.InputError
			if !errors.As(err, &inputErr) {
				return err
			}
			line.Error = inputErr
			failed++
		} else {
			line.Result = &res
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d inputs could not be normalized", failed, len(args))
	}
	return nil
}
