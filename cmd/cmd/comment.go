package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixelloop/angif/gif"
	"github.com/pixelloop/angif/internal/mmap"
)

func DefineCommentCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "comment <file.gif>",
		Short:        "Print a GIF's first comment sub-block, if any",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunComment,
	}
}

func RunComment(cmd *cobra.Command, args []string) error {
	src, err := mmap.NewSource(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	dec, err := gif.New(gif.Config{
		DrawMode: gif.RawRows,
		Sink:     gif.DrawSinkFunc(func(*gif.DrawRecord) {}),
	})
	if err != nil {
		return err
	}
	if err := dec.Open(src); err != nil {
		return err
	}

	for {
		if _, _, ok := dec.Comment(); ok {
			break
		}
		ok, err := dec.PlayFrame()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("no comment extension found")
			return nil
		}
	}

	text, err := dec.ReadComment()
	if err != nil {
		return err
	}
	fmt.Println(string(text))
	return nil
}
