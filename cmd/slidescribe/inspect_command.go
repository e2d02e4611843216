package main

import (
	"fmt"
	"image"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"slidescribe/internal/services"
	"slidescribe/internal/slides"
)

type inspectJSON struct {
	Anchor     string  `json:"anchor"`
	SSIM       float64 `json:"ssim"`
	PixelRatio float64 `json:"pixel_ratio"`
	Score      float64 `json:"score"`
	Threshold  float64 `json:"threshold"`
	Resized    bool    `json:"resized"`
	SameSlide  bool    `json:"same_slide"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var anchorFlag string
	var fullFrame bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "inspect <a.png> <b.png>",
		Short: "Compare two frames the way the slide detector does",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			anchorName := cfg.Detection.Anchor
			if cmd.Flags().Changed("anchor") {
				anchorName = anchorFlag
			}
			anchor, err := slides.ParseAnchor(anchorName)
			if err != nil {
				return err
			}

			a, err := loadInspectRegion(args[0], anchor, fullFrame)
			if err != nil {
				return err
			}
			b, err := loadInspectRegion(args[1], anchor, fullFrame)
			if err != nil {
				return err
			}

			cmp := slides.Compare(a, b)
			label := anchor.String()
			if fullFrame {
				label = "full frame"
			}
			report := inspectJSON{
				Anchor:     label,
				SSIM:       cmp.SSIM,
				PixelRatio: cmp.PixelRatio,
				Score:      cmp.Score,
				Threshold:  cfg.Detection.Threshold,
				Resized:    cmp.Resized,
				SameSlide:  cmp.Score >= cfg.Detection.Threshold,
			}
			if jsonOutput {
				return writeJSON(cmd, report)
			}

			rows := [][]string{
				{"Region", report.Anchor},
				{"SSIM", formatScore(report.SSIM)},
				{"Pixel ratio", formatScore(report.PixelRatio)},
				{"Score", formatScore(report.Score)},
				{"Threshold", formatScore(report.Threshold)},
				{"Resized", yesNo(report.Resized)},
			}
			out := cmd.OutOrStdout()
			printTable(out, []string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
			colorize := shouldColorize(out)
			if report.SameSlide {
				fmt.Fprintln(out, renderStatusLine("Verdict", statusOK, "Same slide", colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Verdict", statusWarn, "Slide change", colorize))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&anchorFlag, "anchor", "", "Region to compare (default: detection.anchor)")
	cmd.Flags().BoolVar(&fullFrame, "full", false, "Compare whole frames instead of the anchor region")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the comparison as JSON")
	return cmd
}

func loadInspectRegion(path string, anchor slides.Anchor, fullFrame bool) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "inspect", "open image", path, err)
	}
	if fullFrame {
		return img, nil
	}
	return slides.ExtractRegion(img, anchor)
}

func formatScore(value float64) string {
	return strconv.FormatFloat(value, 'f', 4, 64)
}
