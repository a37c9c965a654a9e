package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"object-detection/internal/app"
	"object-detection/internal/database"
	"object-detection/internal/logging"
	"object-detection/internal/mediatypes"
	"object-detection/internal/memory"
	"object-detection/internal/pipeline"
	"object-detection/internal/startup"
)

// CliArgs stores the parsed command line arguments.
type CliArgs struct {
	// Input is the video file to process.
	Input string

	// VideoID names the run. A new uuid is used when empty.
	VideoID string

	// KeepIntermediate keeps the mp4v encode next to the H.264 result.
	KeepIntermediate bool

	// LogLevelString overrides LOG_LEVEL.
	LogLevelString string
}

// ValidateInput checks that Input names a readable file of an accepted
// format.
func (args *CliArgs) ValidateInput() error {
	if args.Input == "" {
		return errors.New("--input is required")
	}
	if !mediatypes.IsUploadable(args.Input) {
		return errors.Errorf("unsupported input format %q", filepath.Ext(args.Input))
	}
	st, err := os.Stat(args.Input)
	if err != nil {
		return errors.Wrap(err, "input")
	}
	if st.IsDir() {
		return errors.Errorf("input %s is a directory", args.Input)
	}
	return nil
}

// ValidateLogLevelString checks the --log-level value.
func (args *CliArgs) ValidateLogLevelString() error {
	switch args.LogLevelString {
	case "", "trace", "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return errors.Errorf("unknown log level '%s'", args.LogLevelString)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		logging.Error("%v", err)
		stop()
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	args := &CliArgs{}

	return &cli.App{
		Name:      "detectvideo",
		Usage:     "run object detection on video files",
		Writer:    out,
		ErrWriter: os.Stderr,

		Before: func(c *cli.Context) error {
			if err := args.ValidateLogLevelString(); err != nil {
				return err
			}
			if args.LogLevelString != "" {
				logging.SetLevel(logging.ParseLevel(args.LogLevelString))
			}
			return nil
		},

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level: [debug, info, warn, error]",
				EnvVars:     []string{"LOG_LEVEL"},
				Destination: &args.LogLevelString,
			},
		},

		Commands: []*cli.Command{
			{
				Name:  "process",
				Usage: "Run a video through detection, annotation and transcoding",

				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "input",
						Aliases:     []string{"i"},
						Usage:       "video file to process (.mp4, .avi, .mov)",
						Required:    true,
						Destination: &args.Input,
					},
					&cli.StringFlag{
						Name:        "id",
						Usage:       "video id; defaults to a new uuid",
						Destination: &args.VideoID,
					},
					&cli.BoolFlag{
						Name:        "keep-intermediate",
						Usage:       "keep the mp4v encode after transcoding",
						Destination: &args.KeepIntermediate,
					},
				},

				Before: func(c *cli.Context) error {
					return args.ValidateInput()
				},

				Action: func(c *cli.Context) error {
					return processMain(c.Context, args, c.App.Writer)
				},
			},

			{
				Name:  "detections",
				Usage: "Print the stored detections of a video",

				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "id",
						Usage:       "video id",
						Required:    true,
						Destination: &args.VideoID,
					},
				},

				Action: func(c *cli.Context) error {
					return detectionsMain(c.Context, args.VideoID, c.App.Writer)
				},
			},

			{
				Name:  "videos",
				Usage: "List known videos and their status",

				Action: func(c *cli.Context) error {
					return videosMain(c.Context, c.App.Writer)
				},
			},
		},
	}
}

func loadConfig() (*startup.Config, error) {
	cfg, err := startup.FromEnv()
	if err != nil {
		return nil, errors.Wrap(err, "configuration")
	}
	if err := cfg.Prepare(); err != nil {
		return nil, errors.Wrap(err, "directories")
	}
	return cfg, nil
}

func openDatabase(ctx context.Context) (*database.Database, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, cfg.DatabaseURL, cfg.DatabasePath)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	return db, nil
}

func processMain(ctx context.Context, args *CliArgs, out io.Writer) error {
	memory.Configure(os.Getenv)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if args.KeepIntermediate {
		cfg.KeepIntermediate = true
	}

	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	id := args.VideoID
	if id == "" {
		id = uuid.NewString()
	}
	input, err := filepath.Abs(args.Input)
	if err != nil {
		return errors.Wrap(err, "input")
	}

	v, err := ensureVideo(ctx, a.DB, id, input)
	if err != nil {
		return err
	}

	res, err := a.Runner.Run(ctx, pipeline.Job{VideoID: v.ID, SourcePath: v.FilePath})
	if err != nil {
		return errors.Wrapf(err, "process %s", v.ID)
	}
	return writeJSON(out, res)
}

// ensureVideo returns the row for id, creating it for input when absent. An
// existing row must point at input.
func ensureVideo(ctx context.Context, db *database.Database, id, input string) (*database.Video, error) {
	v, err := db.GetVideo(ctx, id)
	if err == nil {
		if filepath.Clean(v.FilePath) != filepath.Clean(input) {
			return nil, errors.Errorf("video %s is registered for %s, not %s", id, v.FilePath, input)
		}
		return v, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, errors.Wrapf(err, "look up video %s", id)
	}

	v = &database.Video{ID: id, Filename: filepath.Base(input), FilePath: input}
	if err := db.CreateVideo(ctx, v); err != nil {
		return nil, errors.Wrapf(err, "register video %s", id)
	}
	return v, nil
}

func detectionsMain(ctx context.Context, id string, out io.Writer) error {
	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	dets, err := db.GetDetections(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "detections for %s", id)
	}
	if len(dets) == 0 {
		return errors.Errorf("no detections found for video %s", id)
	}
	return writeJSON(out, map[string]interface{}{"video_id": id, "detections": dets})
}

func videosMain(ctx context.Context, out io.Writer) error {
	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	videos, err := db.ListVideos(ctx)
	if err != nil {
		return errors.Wrap(err, "list videos")
	}
	if videos == nil {
		videos = []database.Video{}
	}
	return writeJSON(out, map[string]interface{}{"videos": videos})
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
