// Command isochron boots the control core: it loads configuration and the
// profile library, constructs every component, wires the channels between
// them per the concurrency model in spec.md §5, and runs until interrupted.
//
// Concrete silicon drivers (stepper, thermistor) are out of scope (spec.md
// §1); this binary always drives the in-memory drivers/sim stand-ins, the
// same role tmc5160.NewDefaultStepper plays for the teacher's stepper math.
// A real deployment substitutes its own build for sim.Actuator/HeaterOutput/
// TempSource against actual peripherals.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/isochron-fw/isochron/clock"
	"github.com/isochron-fw/isochron/config"
	"github.com/isochron-fw/isochron/control"
	"github.com/isochron-fw/isochron/drivers/sim"
	"github.com/isochron-fw/isochron/heater"
	"github.com/isochron-fw/isochron/link"
	"github.com/isochron-fw/isochron/logging"
	"github.com/isochron-fw/isochron/motor"
	"github.com/isochron-fw/isochron/profile"
	"github.com/isochron-fw/isochron/safety"
	"github.com/isochron-fw/isochron/scheduler"
	"github.com/isochron-fw/isochron/store"
)

func main() {
	configPath := flag.String("config", "", "path to a key=value configuration file (built-in defaults used if absent)")
	profilesPath := flag.String("profiles", "", "path to a JSON file of {\"profiles\":[...],\"programs\":[...]} (empty library if absent)")
	serialDevice := flag.String("serial", "", "path to the UI terminal's serial device, e.g. /dev/ttyUSB0 (link runs disconnected if empty)")
	logLevel := flag.String("log-level", "info", "debug|info|warn|error")
	automated := flag.Bool("automated", false, "jars load without operator confirmation (skips AwaitingJar/AwaitingSpinOff)")
	flag.Parse()

	logger := logging.New(os.Stderr, parseLevel(*logLevel))

	cfg := loadConfig(*configPath, logger)
	profiles, programs := loadProfiles(*profilesPath, logger)
	st := profile.NewStore(profiles, programs)

	if err := run(cfg, st, *serialDevice, *automated, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func loadConfig(path string, logger *slog.Logger) *config.Config {
	if path == "" {
		return config.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("config: could not open file, using built-in defaults", "path", path, "error", err)
		return config.Default()
	}
	defer f.Close()
	cfg, err := config.Load(f)
	if err != nil {
		logger.Warn("config: some entries ignored, defaults used where invalid", "error", err)
	}
	return cfg
}

// profilesFile is the on-disk shape of the -profiles JSON file. Kind and
// Direction encode as plain integers (their underlying type), which is an
// acceptable minimal format since spec.md leaves the concrete profile/
// program storage format out of scope (§1: "flash persistence ... not
// specified").
type profilesFile struct {
	Profiles []*profile.Profile `json:"profiles"`
	Programs []*profile.Program `json:"programs"`
}

func loadProfiles(path string, logger *slog.Logger) (map[string]*profile.Profile, map[string]*profile.Program) {
	profiles := map[string]*profile.Profile{}
	programs := map[string]*profile.Program{}
	if path == "" {
		return profiles, programs
	}
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("profiles: could not open file, booting with an empty library", "path", path, "error", err)
		return profiles, programs
	}
	defer f.Close()

	var pf profilesFile
	if err := json.NewDecoder(f).Decode(&pf); err != nil {
		logger.Warn("profiles: malformed JSON, booting with an empty library", "error", err)
		return map[string]*profile.Profile{}, map[string]*profile.Program{}
	}
	for _, p := range pf.Profiles {
		profiles[p.Label] = p
	}
	for _, p := range pf.Programs {
		programs[p.Label] = p
	}
	for _, p := range programs {
		if err := profile.ValidateProgram(p, profiles); err != nil {
			logger.Warn("profiles: program fails validation, Start will refuse it", "program", p.Label, "error", err)
		}
	}
	return profiles, programs
}

func run(cfg *config.Config, st *profile.Store, serialDevice string, automated bool, logger *slog.Logger) error {
	heaterCfg := cfg.Heaters["main"]

	actuator := sim.NewActuator()
	heaterOutput := sim.NewHeaterOutput()
	tempSource := sim.NewTempSource()

	mc := motor.NewController(actuator, cfg.Motor.MaxAccelRPMPerS)
	mon := safety.NewMonitor(heaterCfg.MaxTempC)
	sched := scheduler.New()
	scr := link.NewScreen()
	kv := store.NewMemory()

	mode := heater.BangBang
	if heaterCfg.Mode == "pid" {
		mode = heater.PID
	}
	pidCoef := heaterPIDCoefficients(heaterCfg, kv, logger)

	// heater.New needs a MachineStateSource before the Controller that owns
	// the Heater exists; stateSrc forwards HeaterMayRun to that Controller
	// once it is built, which breaks the construction cycle.
	ctrlCfg := control.Config{Automated: automated}
	stateSrc := &controllerStateSource{}
	htr := heater.New(heaterOutput, stateSrc, heater.Config{
		Mode:       mode,
		MaxTempC:   heaterCfg.MaxTempC,
		Hysteresis: heaterCfg.Hysteresis,
		PID:        pidCoef,
	})
	ctrl := control.New(ctrlCfg, st, mc, htr, sched, mon, scr)
	stateSrc.ctrl = ctrl

	events := make(chan control.Event, 16)
	outbound := make(chan link.Frame, 16)

	hb := link.NewHeartbeat(
		func() { trySend(outbound, link.Pong(), logger) },
		func() {
			logger.Error("link heartbeat exhausted its retry sequence")
			mon.ReportLinkLost()
		},
	)

	if serialDevice != "" {
		f, err := os.OpenFile(serialDevice, os.O_RDWR, 0)
		if err != nil {
			return fmt.Errorf("opening serial device %s: %w", serialDevice, err)
		}
		defer f.Close()
		sl := newSerialLink(f, f, events, outbound, hb, logger)
		go sl.receive()
		go sl.transmit()
	} else {
		logger.Info("no -serial device given; running with the link disconnected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events <- control.BootComplete()

	clk := clock.NewSystem()
	var lastTick time.Duration
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	heartbeatTicker := time.NewTicker(250 * time.Millisecond)
	defer heartbeatTicker.Stop()

	var autotune *heater.Autotune

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil

		case now := <-ticker.C:
			elapsed := clk.Now()
			dt := (elapsed - lastTick).Seconds()
			lastTick = elapsed

			centiC, terr := tempSource.Read()
			reading := heater.Reading{TempCentiC: centiC, Fault: terr != nil}

			if ctrl.State() == control.Autotuning {
				autotune = driveAutotune(autotune, heaterOutput, heaterCfg, now, reading, kv, mon, logger)
			} else {
				autotune = nil
			}

			ctrl.Step(control.HeaterReading(reading))
			ctrl.Step(control.MotorStall(actuator.IsStalled()))
			if _, errored := ctrl.Step(control.Tick(now, dt)); errored {
				logger.Error("safety fault during tick", "fault", ctrl.Context().Fault)
			}
			renderScreen(ctrl, outbound, logger)

		case <-heartbeatTicker.C:
			hb.Tick(time.Now())

		case ev := <-events:
			if ev.Kind == control.EvLinkInput {
				translated, ok := translateInput(ctrl.State(), ev.Input)
				if !ok {
					break
				}
				ev = translated
			}
			if _, errored := ctrl.Step(ev); errored {
				logger.Error("safety fault handling event", "fault", ctrl.Context().Fault)
			}
			renderScreen(ctrl, outbound, logger)
		}
	}
}

// controllerStateSource is the heater's MachineStateSource: it reports the
// Controller's HeaterMayRun, and false until ctrl is set.
type controllerStateSource struct {
	ctrl *control.Controller
}

func (s *controllerStateSource) HeaterMayRun() bool {
	return s.ctrl != nil && s.ctrl.HeaterMayRun()
}

// driveAutotune feeds one sample into the in-progress Autotune run (or
// starts one if none is running), persisting the resulting coefficients or
// reporting an abort to the Safety Monitor once it concludes. The run's
// lifecycle is owned here rather than by Controller, which only tracks the
// Autotuning MachineState (control/controller.go's stepAutotuning comment).
func driveAutotune(a *heater.Autotune, output heater.Output, cfg config.HeaterConfig, now time.Time, reading heater.Reading, kv store.KV, mon *safety.Monitor, logger *slog.Logger) *heater.Autotune {
	if a == nil {
		target := cfg.MaxTempC - 5
		a = heater.NewAutotune(output, target, cfg.MaxTempC)
		logger.Info("autotune started", "target_c", target, "max_temp_c", cfg.MaxTempC)
	}
	if !a.Sample(now, reading) {
		return a
	}
	if err := a.AsError(); err != nil {
		logger.Warn("autotune aborted", "error", err)
		mon.ReportAutotuneAborted()
	} else {
		result := a.Result()
		persistPID(kv, result)
		logger.Info("autotune complete", "kp", result.Kp, "ki", result.Ki, "kd", result.Kd)
	}
	return nil
}

func renderScreen(ctrl *control.Controller, outbound chan<- link.Frame, logger *slog.Logger) {
	for _, f := range ctrl.Screen().Render() {
		trySend(outbound, f, logger)
	}
}

func trySend(ch chan<- link.Frame, f link.Frame, logger *slog.Logger) {
	select {
	case ch <- f:
	default:
		logger.Debug("link: outbound buffer full, dropping frame", "type", f.Type)
	}
}

// translateInput maps a raw encoder action onto the Controller event it
// means in the current MachineState. This interpretation layer belongs to
// the boot wiring rather than Controller itself: spec.md scopes "the
// on-terminal rendering firmware" out (§1), and symmetrically the meaning of
// a click depends on context the Controller already tracks via MachineState.
// Program/profile selection by scrolling (EncoderCW/EncoderCCW in Idle) is
// left to a richer UI-state layer than this minimal entrypoint builds.
func translateInput(state control.MachineState, ev link.EncoderEvent) (control.Event, bool) {
	if ev == link.EncoderLongPress {
		return control.Abort(), true
	}
	if ev != link.EncoderClick {
		return control.Event{}, false
	}
	switch state {
	case control.ProgramSelected:
		return control.Start(), true
	case control.AwaitingJar, control.AwaitingSpinOff, control.Autotuning:
		return control.UserConfirm(), true
	case control.StepComplete:
		return control.NextStep(), true
	case control.Running:
		return control.Pause(), true
	case control.Paused:
		return control.Resume(), true
	case control.Error:
		return control.AcknowledgeError(), true
	default:
		return control.Event{}, false
	}
}

func heaterPIDCoefficients(cfg config.HeaterConfig, kv store.KV, logger *slog.Logger) heater.PIDCoefficients {
	// Coefficient source precedence: config -> persisted autotune result ->
	// zeros (spec.md §4.3).
	configured := heater.PIDCoefficients{Kp: cfg.PIDKp, Ki: cfg.PIDKi, Kd: cfg.PIDKd}
	if !configured.IsZero() {
		return configured
	}
	kp, kpOK := getFloat(kv, store.KeyHeaterPIDKp)
	ki, kiOK := getFloat(kv, store.KeyHeaterPIDKi)
	kd, kdOK := getFloat(kv, store.KeyHeaterPIDKd)
	if kpOK || kiOK || kdOK {
		logger.Info("heater: using persisted autotune PID coefficients")
		return heater.PIDCoefficients{Kp: kp, Ki: ki, Kd: kd}
	}
	return heater.PIDCoefficients{}
}

func getFloat(kv store.KV, key string) (float64, bool) {
	b, ok := kv.Get(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func persistPID(kv store.KV, coef heater.PIDCoefficients) {
	kv.Put(store.KeyHeaterPIDKp, []byte(strconv.FormatFloat(coef.Kp, 'g', -1, 64)))
	kv.Put(store.KeyHeaterPIDKi, []byte(strconv.FormatFloat(coef.Ki, 'g', -1, 64)))
	kv.Put(store.KeyHeaterPIDKd, []byte(strconv.FormatFloat(coef.Kd, 'g', -1, 64)))
}

// serialLink owns the one RX task and one TX task exclusively driving the
// serial port (spec.md §5: "The serial port to the terminal is owned
// exclusively by the Link component, one RX task, one TX task").
type serialLink struct {
	r          io.Reader
	w          io.Writer
	events     chan<- control.Event
	outbound   <-chan link.Frame
	outboundTx chan<- link.Frame
	hb         *link.Heartbeat
	logger     *slog.Logger
	dec        *link.Decoder
}

func newSerialLink(r io.Reader, w io.Writer, events chan<- control.Event, outbound chan link.Frame, hb *link.Heartbeat, logger *slog.Logger) *serialLink {
	return &serialLink{
		r:          r,
		w:          w,
		events:     events,
		outbound:   outbound,
		outboundTx: outbound,
		hb:         hb,
		logger:     logger,
		dec:        link.NewDecoder(link.IsKnownInboundType),
	}
}

func (s *serialLink) receive() {
	br := bufio.NewReader(s.r)
	for {
		b, err := br.ReadByte()
		if err != nil {
			s.logger.Error("link: RX task exiting", "error", err)
			return
		}
		now := time.Now()
		frame, ok := s.dec.Feed(b, now)
		if !ok {
			continue
		}
		switch frame.Type {
		case link.TypePing:
			s.hb.OnPing(now)
			trySend(s.outboundTx, link.Pong(), s.logger)
			s.events <- control.HeartbeatPing(now)
		case link.TypeInput:
			if encEv, ok := link.Input(frame); ok {
				s.events <- control.LinkInput(encEv)
			}
		case link.TypeAck:
			// Informational only; no controller event is needed.
		}
	}
}

func (s *serialLink) transmit() {
	for f := range s.outbound {
		b, err := link.Encode(f)
		if err != nil {
			s.logger.Warn("link: dropping unencodable frame", "error", err)
			continue
		}
		if _, err := s.w.Write(b); err != nil {
			s.logger.Error("link: TX task exiting", "error", err)
			return
		}
	}
}
