// Command sentiment reports the predominant facial sentiment of images or of
// a live camera.
package main

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-skills/camera"
	"github.com/nvr-ai/go-skills/common"
	"github.com/nvr-ai/go-skills/config"
	"github.com/nvr-ai/go-skills/images"
	"github.com/nvr-ai/go-skills/inference/providers"
	"github.com/nvr-ai/go-skills/logging"
	"github.com/nvr-ai/go-skills/sentiment"
	"github.com/nvr-ai/go-skills/util"
)

// Options holds the command line flags.
type Options struct {
	ConfigPath  string
	SkillID     string
	Device      string
	Interactive bool
	CameraID    int
	Shared      bool
	SnapshotDir string
	MetricsAddr string
	Show        bool
	LogLevel    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit status.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts Options

	cmd := &cobra.Command{
		Use:   "sentiment [image-or-directory]",
		Short: "Face sentiment analysis on images or a camera",
		Long: "Detects faces and reports the predominant sentiment of each one.\n" +
			"With a path, every jpeg or png it names is analyzed. Without one, frames\n" +
			"are read from the camera until Enter or Ctrl+C.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return execute(cmd.Context(), opts, path, stdin, stdout)
		},
	}
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVarP(&opts.ConfigPath, "config", "c", "", "YAML configuration file")
	f.StringVar(&opts.SkillID, "id", "", "GUID the model was obfuscated with (overrides skill.id)")
	f.StringVarP(&opts.Device, "device", "d", "", "Execution device: cpu, gpu or vpu (overrides runtime.device)")
	f.BoolVarP(&opts.Interactive, "interactive", "i", false, "Prompt for the execution device when none is set")
	f.IntVar(&opts.CameraID, "camera", -1, "Camera index (overrides camera.device_id)")
	f.BoolVar(&opts.Shared, "shared", false, "Open the camera in shared mode")
	f.StringVar(&opts.SnapshotDir, "snapshot-dir", "", "Save the last frame per sentiment as <Sentiment>Face.jpg in this directory")
	f.StringVar(&opts.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address in camera mode")
	f.BoolVar(&opts.Show, "show", false, "Show camera frames with face rectangles in a window")
	f.StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides log.level)")

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %x: %s\n", errorCode(err), err)
		return common.ExitCode(err)
	}
	return 0
}

func execute(ctx context.Context, opts Options, path string, stdin io.Reader, stdout io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	log := logging.Init(cfg.Log.Level, cfg.Log.Format)

	key, err := cfg.Key()
	if err != nil {
		return errors.Wrap(err, "skill id")
	}

	devices, err := providers.EnumerateComputeDevices(ctx, providers.StaticAdapters(cfg.Adapters))
	if err != nil {
		return err
	}
	in := bufio.NewReader(stdin)
	dev, err := chooseDevice(devices, cfg.Runtime.Device, opts.Interactive, in, stdout)
	if err != nil {
		return err
	}

	analyzer, err := sentiment.NewBuilder().
		WithLogger(log).
		WithRuntime(cfg.Runtime.LibraryPath).
		WithDeviceBackend(dev, providers.ProviderBackend(cfg.Runtime.Backend)).
		WithOptimization(&providers.OptimizationConfig{
			GraphOptimizationLevel: providers.DefaultOptimizationConfig().GraphOptimizationLevel,
			IntraOpNumThreads:      cfg.Runtime.IntraOpThreads,
		}).
		WithObfuscatedModel(cfg.Skill.ModelPath, key).
		WithCascade(sentiment.CascadeConfig{
			Path:         cfg.Skill.CascadePath,
			ScaleFactor:  cfg.Detector.ScaleFactor,
			MinNeighbors: cfg.Detector.MinNeighbors,
			MinFaceSize:  cfg.Detector.MinFaceSize,
			NMS:          &cfg.Detector.NMS,
		}).
		WithMaxFaces(cfg.Detector.MaxFaces).
		Build()
	if err != nil {
		return err
	}
	defer analyzer.Close()

	fmt.Fprintf(stdout, "Running skill on: %s\n", analyzer.Device())

	if path != "" {
		files, err := util.LoadImageFiles(path)
		if err != nil {
			return err
		}
		return evaluateFiles(ctx, analyzer, files, stdout, opts.SnapshotDir)
	}
	return runCamera(ctx, cfg, opts, analyzer, in, stdout)
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(opts Options) (config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return config.Config{}, err
		}
	}

	if opts.SkillID != "" {
		cfg.Skill.ID = opts.SkillID
	}
	if opts.Device != "" {
		cfg.Runtime.Device = opts.Device
	}
	if opts.CameraID >= 0 {
		cfg.Camera.DeviceID = opts.CameraID
	}
	if opts.Shared {
		cfg.Camera.Exclusive = false
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, cfg.Validate()
}

// evaluateFiles analyzes each image file and prints one line per file.
func evaluateFiles(ctx context.Context, analyzer *sentiment.Analyzer, files []util.ImageFile, stdout io.Writer, snapshotDir string) error {
	for _, file := range files {
		img, err := images.Decode(file.Data)
		if err != nil {
			return common.E(common.KindInvalidArgument, "sentiment", errors.Wrap(err, file.Path))
		}

		result, err := analyzer.Evaluate(ctx, img.Pixels)
		if err != nil {
			return errors.Wrap(err, file.Path)
		}
		fmt.Fprintf(stdout, "%s: %s\n", file.Path, describe(result))

		if err := saveSnapshot(snapshotDir, img.Pixels, result); err != nil {
			return err
		}
	}
	return nil
}

func runCamera(ctx context.Context, cfg config.Config, opts Options, analyzer *sentiment.Analyzer, in *bufio.Reader, stdout io.Writer) error {
	log := logging.L()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mode := camera.Exclusive
	if !cfg.Camera.Exclusive {
		mode = camera.Shared
	}
	dev := camera.NewVideoCaptureDevice(cfg.Camera.DeviceID, cfg.Camera.Formats)
	cam, err := camera.Open(ctx, dev, camera.OpenOptions{Mode: mode, Logger: log})
	if err != nil {
		return err
	}
	defer cam.Close()
	fmt.Fprintf(stdout, "%s | MediaStreamType: %s | Format: %s\n", cam.Source.DeviceName, cam.Source.Stream, cam.Format)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	gate, err := camera.NewGate(reg)
	if err != nil {
		return err
	}
	if opts.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              opts.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server stopped", "addr", opts.MetricsAddr, "error", err)
			}
		}()
		defer srv.Close()
	}

	// Enter stops the capture.
	go func() {
		if _, err := in.ReadString('\n'); err == nil {
			cancel()
		}
	}()
	fmt.Fprintln(stdout, "Please face your camera. Press Enter to stop.")

	var view *viewer
	if opts.Show {
		view = newViewer()
	}

	evaluate := func(ctx context.Context, frame image.Image) {
		result, err := analyzer.Evaluate(ctx, frame)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn("frame evaluation failed", "error", err)
			}
			return
		}
		fmt.Fprintf(stdout, "\r%-48s", describe(result))
		if err := saveSnapshot(opts.SnapshotDir, frame, result); err != nil {
			log.Warn("snapshot failed", "error", err)
		}
		view.offer(frame, result)
	}

	if view == nil {
		err = camera.Run(ctx, cam, gate, evaluate)
	} else {
		done := make(chan error, 1)
		go func() { done <- camera.Run(ctx, cam, gate, evaluate) }()
		runtime.LockOSThread()
		view.loop(ctx, cancel)
		runtime.UnlockOSThread()
		err = <-done
	}
	fmt.Fprintln(stdout)
	log.Info("capture stopped", "evaluated", gate.EvaluatedCount(), "dropped", gate.DroppedCount())
	return err
}

// errorCode is the platform code carried by err, or its exit status.
func errorCode(err error) uint32 {
	if code := common.CodeOf(err); code != 0 {
		return code
	}
	return uint32(common.ExitCode(err))
}
