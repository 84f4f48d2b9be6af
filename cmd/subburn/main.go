// Command subburn burns subtitles into a single video frame and
// writes the result as PNG. It exists to exercise the full provider
// pipeline from the command line: load, scan, resolve, register,
// render, composite.
package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/subgo/subrender"
	"github.com/subgo/subrender/backend"
	_ "github.com/subgo/subrender/backend/libass"
	_ "github.com/subgo/subrender/backend/soft"
	"github.com/subgo/subrender/internal/assparse"
	"github.com/subgo/subrender/provider"
)

var (
	flagConfig  string
	flagOutput  string
	flagFrame   string
	flagSize    string
	flagTime    string
	flagBackend string
	flagVerbose bool
)

// fileConfig mirrors the command-line flags; flags win over the file.
type fileConfig struct {
	Output  string `yaml:"output"`
	Frame   string `yaml:"frame"`
	Size    string `yaml:"size"`
	Time    string `yaml:"time"`
	Backend string `yaml:"backend"`
}

var rootCmd = &cobra.Command{
	Use:   "subburn <subtitles.ass>",
	Short: "Render a subtitle frame to PNG",
	Long: `Renders the subtitles at a given timestamp onto a frame and writes
the composited result as a PNG file.

The frame is either loaded from an image (--frame) or is a black
canvas of the given size (--size WxH). The timestamp uses subtitle
time syntax, e.g. 0:01:23.45.

Examples:
  subburn episode.ass --time 0:01:23.45 --size 1280x720 -o out.png
  subburn episode.ass --time 0:00:12.00 --frame still.png -o out.png
  subburn episode.ass --config burn.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runBurn,
}

func init() {
	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "YAML config file with defaults for the other flags")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "out.png", "output PNG path")
	rootCmd.Flags().StringVar(&flagFrame, "frame", "", "background frame image (PNG/JPEG)")
	rootCmd.Flags().StringVar(&flagSize, "size", "1280x720", "frame size WxH when no --frame is given")
	rootCmd.Flags().StringVarP(&flagTime, "time", "t", "0:00:00.00", "timestamp to render at")
	rootCmd.Flags().StringVar(&flagBackend, "backend", "", "force a backend (soft, libass); default picks the best available")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runBurn(cmd *cobra.Command, args []string) error {
	if flagConfig != "" {
		if err := applyConfig(cmd, flagConfig); err != nil {
			return err
		}
	}
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	subrender.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	payload, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	doc := &subrender.Document{Filename: args[0], Payload: payload}

	p, err := openProvider()
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.LoadSubtitles(doc); err != nil {
		return err
	}

	frame, err := buildFrame()
	if err != nil {
		return err
	}

	at, ok := assparse.ParseTime(flagTime)
	if !ok {
		return fmt.Errorf("bad --time %q, want h:mm:ss.cc", flagTime)
	}

	if err := p.DrawSubtitles(frame, at); err != nil {
		return err
	}
	return writePNG(flagOutput, frame)
}

func applyConfig(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Output != "" && !cmd.Flags().Changed("output") {
		flagOutput = cfg.Output
	}
	if cfg.Frame != "" && !cmd.Flags().Changed("frame") {
		flagFrame = cfg.Frame
	}
	if cfg.Size != "" && !cmd.Flags().Changed("size") {
		flagSize = cfg.Size
	}
	if cfg.Time != "" && !cmd.Flags().Changed("time") {
		flagTime = cfg.Time
	}
	if cfg.Backend != "" && !cmd.Flags().Changed("backend") {
		flagBackend = cfg.Backend
	}
	return nil
}

func openProvider() (*provider.Provider, error) {
	if flagBackend == "" {
		return provider.Open()
	}
	b := backend.Get(flagBackend)
	if b == nil {
		return nil, fmt.Errorf("unknown backend %q (have %v)", flagBackend, backend.Available())
	}
	return provider.New(b)
}

// buildFrame prepares the BGRA canvas: either the decoded background
// image or a black frame of the requested size.
func buildFrame() (*subrender.VideoFrame, error) {
	if flagFrame == "" {
		w, h, err := parseSize(flagSize)
		if err != nil {
			return nil, err
		}
		return &subrender.VideoFrame{
			Width:  w,
			Height: h,
			Data:   make([]byte, w*h*4),
		}, nil
	}

	f, err := os.Open(flagFrame)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", flagFrame, err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	frame := &subrender.VideoFrame{
		Width:  w,
		Height: h,
		Data:   make([]byte, w*h*4),
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			o := (y*w + x) * 4
			frame.Data[o+0] = byte(b >> 8)
			frame.Data[o+1] = byte(g >> 8)
			frame.Data[o+2] = byte(r >> 8)
		}
	}
	return frame, nil
}

func parseSize(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("bad --size %q, want WxH", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("bad --size width %q", w)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("bad --size height %q", h)
	}
	return width, height, nil
}

func writePNG(path string, frame *subrender.VideoFrame) error {
	out := image.NewNRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			src := (y*frame.Width + x) * 4
			dst := out.PixOffset(x, y)
			out.Pix[dst+0] = frame.Data[src+2]
			out.Pix[dst+1] = frame.Data[src+1]
			out.Pix[dst+2] = frame.Data[src+0]
			out.Pix[dst+3] = 0xFF
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, out); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
