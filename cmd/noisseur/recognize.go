package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/connoisseur/noisseur/internal/imaging"
	"github.com/connoisseur/noisseur/internal/recognize"
)

var (
	recognizePipeline string
	recognizeScale    float64
	recognizeOutput   string
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>",
	Short: "Recognize one screenshot and print the result",
	Long: `Recognize one screenshot and print the result record.

An unrecognized screen is not a command failure: the record is printed with
success=false and the reason in errors. Template configuration errors exit
non-zero.

Examples:
  noisseur recognize shot.png
  noisseur recognize shot.png -o yaml
  noisseur recognize shot.png --pipeline 'scale(2)|bw' --scale 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if recognizeScale < 0 {
			return errors.New("--scale must not be negative")
		}
		data, _, err := imaging.ReadFile(args[0])
		if err != nil {
			return err
		}

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		rec, err := newRecognizer(cfg, store)
		if err != nil {
			return err
		}

		res, err := rec.Recognize(recognize.Request{
			Image:    data,
			Pipeline: recognizePipeline,
			Scale:    recognizeScale,
		})
		if err != nil {
			return fmt.Errorf("recognize %s: %w", args[0], err)
		}
		return writeOutput(cmd.OutOrStdout(), recognizeOutput, res)
	},
}

func init() {
	recognizeCmd.Flags().StringVar(&recognizePipeline, "pipeline", "", "pre-processing pipeline (default: recognize.pipeline)")
	recognizeCmd.Flags().Float64Var(&recognizeScale, "scale", 0, "scale factor applied by --pipeline (default: taken from the pipeline)")
	recognizeCmd.Flags().StringVarP(&recognizeOutput, "output", "o", "json", "output format: json or yaml")

	rootCmd.AddCommand(recognizeCmd)
}
