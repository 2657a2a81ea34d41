package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/rlcd"
	"github.com/BeatGlow/rlcd/conn/conntest"
	"github.com/BeatGlow/rlcd/internal/config"
	"github.com/BeatGlow/rlcd/internal/log"
	"github.com/BeatGlow/rlcd/internal/schedule"
	"github.com/BeatGlow/rlcd/pixel"
)

func main() {
	configFlag := flag.String("config", "rlcd.yaml", "Configuration file (created with defaults if missing)")
	dryRunFlag := flag.Bool("dry-run", false, "Record bus traffic instead of driving hardware")
	onceFlag := flag.Bool("once", false, "Refresh once and exit")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fatal(err)
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	panel, err := cfg.Panel()
	if err != nil {
		fatal(err)
	}

	var (
		c        rlcd.Conn
		recorder *conntest.Recorder
	)
	if *dryRunFlag {
		recorder = new(conntest.Recorder)
		c, err = rlcd.NewConn(recorder, recorder.Pin("dc"), recorder.Pin("reset"))
	} else {
		if _, err = host.Init(); err != nil {
			fatal(err)
		}
		c, err = rlcd.OpenSPI(&rlcd.SPIConfig{
			Bus:       cfg.SPI.Bus,
			SpeedHz:   cfg.SpeedHz(),
			BatchSize: cfg.SPI.BatchSize,
			Reset:     pinByName(cfg.Pins.Reset),
			DC:        pinByName(cfg.Pins.DC),
			CS:        pinByName(cfg.Pins.CS),
		})
	}
	if err != nil {
		fatal(err)
	}
	fmt.Printf("using connection: %s\n", c)

	var frame int
	output, err := rlcd.ST7305(c, &rlcd.Config{
		Panel:          panel,
		UpdateInterval: cfg.UpdateInterval.Duration(),
		Inverted:       cfg.Inverted,
		Writer: func(s rlcd.Surface) {
			drawFrame(s, frame)
			frame++
		},
	})
	if err != nil {
		_ = c.Close()
		fatal(err)
	}
	fmt.Print(output.DumpConfig())

	sched := schedule.New(output, output.UpdateInterval())
	if err = sched.Trigger(); err != nil {
		_ = output.Close()
		fatal(err)
	}
	if recorder != nil {
		dumpTraffic(recorder)
	}
	if *onceFlag {
		if err = output.Close(); err != nil {
			fatal(err)
		}
		return
	}

	sched.Start()
	fmt.Printf("refreshing every %s, send SIGHUP to refresh now, hit control-c to stop...\n", cfg.UpdateInterval)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	for sig := range signals {
		if sig != syscall.SIGHUP {
			log.Info("signal received, shutting down", "signal", sig.String())
			break
		}
		if err = sched.Trigger(); err != nil {
			log.Error("manual refresh failed", err)
		}
	}

	<-sched.Stop().Done()
	if err = output.Close(); err != nil {
		fatal(err)
	}
}

// drawFrame draws a border, a moving diagonal pattern and a label.
func drawFrame(s rlcd.Surface, frame int) {
	r := s.Bounds()
	s.Clear()

	// Draw box around edge
	s.FillRect(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), pixel.On)
	s.FillRect(image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), pixel.On)
	s.FillRect(image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), pixel.On)
	s.FillRect(image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), pixel.On)

	// Diagonal pattern below the label
	for y := r.Min.Y + 20; y < r.Max.Y-1; y++ {
		for x := r.Min.X + 1; x < r.Max.X-1; x++ {
			if (x+y+frame)%8 == 0 {
				s.Set(x, y, pixel.On)
			}
		}
	}

	d := font.Drawer{
		Dst:  s,
		Src:  image.NewUniform(pixel.On),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(r.Min.X+4, r.Min.Y+14),
	}
	d.DrawString(fmt.Sprintf("%dx%d #%d", r.Dx(), r.Dy(), frame))
}

func dumpTraffic(r *conntest.Recorder) {
	fmt.Printf("recorded %d bus selections\n", r.Selections())
	for _, cmd := range r.Commands("dc") {
		if len(cmd.Data) > 8 {
			fmt.Printf("  %#02x +%d bytes\n", cmd.Cmd, len(cmd.Data))
		} else {
			fmt.Printf("  %#02x % x\n", cmd.Cmd, cmd.Data)
		}
	}
	r.Reset()
}

func pinByName(name string) gpio.PinOut {
	if name == "" {
		return nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		fatal(fmt.Errorf("unknown GPIO pin %q", name))
	}
	return p
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
