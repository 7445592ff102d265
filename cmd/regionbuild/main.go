package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorustyt/gonavregion/common/message"
	"github.com/gorustyt/gonavregion/config"
	"github.com/gorustyt/gonavregion/debug_utils"
	"github.com/gorustyt/gonavregion/recast"
	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger(logPath string, debug bool) *zap.Logger {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}
	if logPath == "" {
		encCfg := zap.NewDevelopmentEncoderConfig()
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level)
		return zap.New(core)
	}
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    64,
		MaxBackups: 3,
		MaxAge:     28,
	})
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), sink, level)
	return zap.New(core)
}

type outputs struct {
	heightfield string
	report      string
	image       string
}

// writeRegionImage renders the region map in the format named by the file
// extension.
func writeRegionImage(path string, chf *recast.RcCompactHeightfield) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	img := debug_utils.DuDrawCompactHeightfieldRegions(chf, 4)
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if err := debug_utils.DuWriteImage(f, img, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func run(logger *zap.Logger, configPath, scenePath string, out outputs) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	scene, err := config.LoadScene(scenePath)
	if err != nil {
		return fmt.Errorf("load scene: %w", err)
	}
	volumes, err := cfg.ConvexVolumes()
	if err != nil {
		return fmt.Errorf("config volumes: %w", err)
	}

	ctx := recast.NewRcContext(logger)
	hf, err := scene.Heightfield(ctx, &cfg)
	if err != nil {
		return fmt.Errorf("rasterise scene: %w", err)
	}
	cfg.FilterHeightfield(ctx, hf)
	chf, err := recast.RcBuildCompactHeightfield(ctx, cfg.WalkableHeight, cfg.WalkableClimb, hf)
	if err != nil {
		return err
	}
	report, err := recast.RcBuildNavRegions(ctx, cfg.RcConfig(), volumes, chf)
	if err != nil {
		return err
	}
	debug_utils.DuLogBuildTimes(ctx, logger)

	if out.heightfield != "" {
		if err := debug_utils.DuWriteCompactHeightfieldFile(out.heightfield, chf); err != nil {
			return fmt.Errorf("write heightfield: %w", err)
		}
		logger.Info("wrote compact heightfield", zap.String("path", out.heightfield))
	}
	if out.report != "" {
		if err := os.WriteFile(out.report, message.Encode(report), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		logger.Info("wrote region report", zap.String("path", out.report))
	}
	if out.image != "" {
		if err := writeRegionImage(out.image, chf); err != nil {
			return fmt.Errorf("write image: %w", err)
		}
		logger.Info("wrote region image", zap.String("path", out.image))
	}

	fmt.Printf("partition=%s spans=%d regions=%d border_spans=%d max_distance=%d overlaps=%v\n",
		report.Partition, report.SpanCount, report.MaxRegions, report.BorderSpanCount, report.MaxDistance, report.Overlaps)
	return nil
}

func main() {
	var (
		configPath = flag.String("config", "", "build config YAML (optional, sample defaults otherwise)")
		scenePath  = flag.String("scene", "", "scene YAML with ASCII layers and triangle meshes")
		outPath    = flag.String("out", "", "write the labelled compact heightfield as .chf.zst (optional)")
		reportPath = flag.String("report", "", "write the region report as protobuf (optional)")
		imagePath  = flag.String("image", "", "write a top-down region map as .png, .bmp or .tiff (optional)")
		logPath    = flag.String("log", "", "rotating log file (optional, stderr otherwise)")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	if *scenePath == "" {
		fmt.Fprintln(os.Stderr, "missing -scene")
		os.Exit(2)
	}

	logger := newLogger(*logPath, *debug)
	defer logger.Sync()

	out := outputs{heightfield: *outPath, report: *reportPath, image: *imagePath}
	if err := run(logger, *configPath, *scenePath, out); err != nil {
		logger.Error("region build failed", zap.Error(err))
		logger.Sync()
		fmt.Fprintln(os.Stderr, "regionbuild:", err)
		os.Exit(1)
	}
}
