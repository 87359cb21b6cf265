package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aisa-it/richdoc/internal/richdoc/convert"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/markdown"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/nodes"
)

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert a document between markdown, html and json",
	Long: `Reads a document from the file or stdin and writes it in the target format to stdout.
Formats: markdown (md), html, json (tiptap).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

var convertFlags struct {
	from     string
	to       string
	sanitize bool
	minify   bool
	plain    bool
}

func init() {
	convertCmd.Flags().StringVarP(&convertFlags.from, "from", "f", "markdown", "Source format")
	convertCmd.Flags().StringVarP(&convertFlags.to, "to", "t", "html", "Target format")
	convertCmd.Flags().BoolVar(&convertFlags.sanitize, "sanitize", false, "Sanitize html input")
	convertCmd.Flags().BoolVar(&convertFlags.minify, "minify", false, "Minify html output")
	convertCmd.Flags().BoolVar(&convertFlags.plain, "plain", false, "Do not write markdown attribute lines {: ...}")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	from, err := convert.ParseFormat(convertFlags.from)
	if err != nil {
		return err
	}
	to, err := convert.ParseFormat(convertFlags.to)
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	src, err := io.ReadAll(in)
	if err != nil {
		return err
	}

	reg, err := nodes.NewSchema()
	if err != nil {
		return err
	}
	var mdOpts []markdown.Option
	if convertFlags.plain || !cfg.MarkdownExtensions {
		mdOpts = append(mdOpts, markdown.WithoutExtensions())
	}
	conv, err := convert.New(reg, nil, mdOpts...)
	if err != nil {
		return err
	}

	out, err := conv.Convert(from, to, src, convert.Options{
		Sanitize: convertFlags.sanitize || (from == convert.HTML && cfg.SanitizeHTML),
		Minify:   convertFlags.minify || (to == convert.HTML && cfg.MinifyHTML),
	})
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(append(out, '\n'))
	return err
}
