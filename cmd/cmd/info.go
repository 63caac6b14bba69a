package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixelloop/angif/gif"
	"github.com/pixelloop/angif/internal/mmap"
	fmtutil "github.com/pixelloop/angif/pkg/util/format"
)

func DefineInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "info <file.gif>",
		Short:        "Print a GIF's canvas and per-frame descriptors",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunInfo,
	}
	cmd.Flags().String("max-line-width", "320", "Row buffer size, e.g. 320 or 1KB (must fit the widest frame)")
	return cmd
}

func RunInfo(cmd *cobra.Command, args []string) error {
	src, err := mmap.NewSource(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	widthStr, _ := cmd.Flags().GetString("max-line-width")
	maxLineWidth, err := fmtutil.ParseBytes(widthStr)
	if err != nil {
		return fmt.Errorf("invalid --max-line-width: %w", err)
	}

	dec, err := gif.New(gif.Config{
		DrawMode:     gif.RawRows,
		Sink:         gif.DrawSinkFunc(func(*gif.DrawRecord) {}),
		MaxLineWidth: int(maxLineWidth),
	})
	if err != nil {
		return err
	}
	if err := dec.Open(src); err != nil {
		return err
	}

	width, height, background, loopCount := dec.Canvas()
	fmt.Printf("canvas: %dx%d (%s) background=%d loopCount=%d\n",
		width, height, fmtutil.FormatBytes(src.Size()), background, loopCount)

	for i := 0; ; i++ {
		ok, err := dec.PlayFrame()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		fi := dec.FrameInfo()
		fmt.Printf("frame %d: rect=(%d,%d,%d,%d) interlace=%v disposal=%d delay=%dms transparent=%v(%d)\n",
			i, fi.X, fi.Y, fi.Width, fi.Height, fi.Interlace, fi.Disposal, fi.DelayMS, fi.HasTransparency, fi.TransparentIdx)
	}
	return nil
}
