package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pixelloop/angif/compositor"
	"github.com/pixelloop/angif/gif"
	"github.com/pixelloop/angif/internal/mmap"
	fmtutil "github.com/pixelloop/angif/pkg/util/format"
	ioutil "github.com/pixelloop/angif/pkg/util/io"
	fsutil "github.com/pixelloop/angif/pkg/util/os"
)

func DefineFramesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "frames <file.gif>",
		Short:        "Decode every frame of a GIF and write each as a PPM image",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunFrames,
	}
	cmd.Flags().StringP("output", "o", ".", "Directory to write decoded frame PPMs into")
	cmd.Flags().String("max-line-width", "320", "Row buffer size, e.g. 320 or 1KB (must fit the widest frame)")
	return cmd
}

func RunFrames(cmd *cobra.Command, args []string) error {
	outDir, _ := cmd.Flags().GetString("output")
	if _, err := fsutil.EnsureDir(outDir, false); err != nil {
		return err
	}

	widthStr, _ := cmd.Flags().GetString("max-line-width")
	maxLineWidth, err := fmtutil.ParseBytes(widthStr)
	if err != nil {
		return fmt.Errorf("invalid --max-line-width: %w", err)
	}

	src, err := mmap.NewSource(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	canvas := compositor.NewCanvas(1, 1)
	dec, err := gif.New(gif.Config{
		DrawMode:     gif.Composited,
		Sink:         canvas,
		MaxLineWidth: int(maxLineWidth),
	})
	if err != nil {
		return err
	}
	if err := dec.Open(src); err != nil {
		return err
	}
	width, height, _, loopCount := dec.Canvas()
	*canvas = *compositor.NewCanvas(width, height)

	replays := 1
	if loopCount == 0 {
		replays = 5 // matches the original sample host's "infinite" convention
	}

	frameIdx := 0
	for pass := 0; pass < replays; pass++ {
		if pass > 0 {
			if err := dec.Reset(); err != nil {
				return err
			}
			*canvas = *compositor.NewCanvas(width, height)
		}
		for {
			ok, err := dec.PlayFrame()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			path := filepath.Join(outDir, fmt.Sprintf("frame%04d.ppm", frameIdx))
			if err := writePPMFile(path, width, height, canvas.Pixels()); err != nil {
				return err
			}
			frameIdx++
		}
	}
	fmt.Printf("wrote %d frame(s) to %s\n", frameIdx, outDir)
	return nil
}

func writePPMFile(path string, width, height int, pix []uint8) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "P6\n%d %d\n255\n", width, height)
	for _, idx := range pix {
		buf.WriteByte(idx)
		buf.WriteByte(idx)
		buf.WriteByte(idx)
	}
	return ioutil.CopyFile(path, &buf)
}
