package audio

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"AudioEditor/core/apperr"
	"AudioEditor/logger"
	"AudioEditor/model"

	"github.com/cockroachdb/errors"
)

const engineUnavailableMessage = "FFmpeg is not available. Please install FFmpeg."

// OutputStore allocates and checks files in the durable output store and maps public
// URLs back to local paths.
type OutputStore interface {
	NewOutput(kind, ext string) model.Output
	VerifyOutput(path string) error
	Resolve(url string) string
}

// Mirror copies a verified output somewhere else. Mirroring never fails an operation.
type Mirror interface {
	Mirror(ctx context.Context, localPath, objectKey string) error
}

// Recorder keeps the operation history.
type Recorder interface {
	Record(ctx context.Context, op *model.Operation) error
}

// Timeouts bound each engine run.
type Timeouts struct {
	Edit     time.Duration
	Separate time.Duration
	Export   time.Duration
}

// DefaultTimeouts are the limits used when none are configured.
var DefaultTimeouts = Timeouts{
	Edit:     120 * time.Second,
	Separate: 180 * time.Second,
	Export:   180 * time.Second,
}

// Editor composes validators, the engine and the output store into the supported
// operations. It holds no per-request state and is safe for concurrent use.
type Editor struct {
	engine   Engine
	outputs  OutputStore
	mirror   Mirror
	recorder Recorder
	timeouts Timeouts
}

type EditorOption func(*Editor)

func WithMirror(m Mirror) EditorOption {
	return func(e *Editor) { e.mirror = m }
}

func WithRecorder(r Recorder) EditorOption {
	return func(e *Editor) { e.recorder = r }
}

func WithTimeouts(t Timeouts) EditorOption {
	return func(e *Editor) {
		if t.Edit > 0 {
			e.timeouts.Edit = t.Edit
		}
		if t.Separate > 0 {
			e.timeouts.Separate = t.Separate
		}
		if t.Export > 0 {
			e.timeouts.Export = t.Export
		}
	}
}

func NewEditor(engine Engine, outputs OutputStore, opts ...EditorOption) *Editor {
	e := &Editor{
		engine:   engine,
		outputs:  outputs,
		timeouts: DefaultTimeouts,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EngineAvailable runs the capability probe.
func (e *Editor) EngineAvailable(ctx context.Context) bool {
	return e.engine.Available(ctx)
}

// EnsureEngine fails fast with EngineUnavailable when the probe fails.
func (e *Editor) EnsureEngine(ctx context.Context) error {
	if !e.engine.Available(ctx) {
		logger.Warn("Engine unavailable, rejecting operation")
		return apperr.EngineUnavailable(engineUnavailableMessage)
	}
	return nil
}

// job is one engine run producing one named output.
type job struct {
	name    string
	output  model.Output
	args    []string
	timeout time.Duration
}

// render runs a job and verifies its output. failMsg and emptyMsg are the user-facing
// messages for a failed run and for a missing or empty file.
func (e *Editor) render(ctx context.Context, j job, failMsg, emptyMsg string) error {
	outcome := e.engine.Run(ctx, j.args, j.timeout)
	if outcome.NotFound {
		return apperr.EngineUnavailable(engineUnavailableMessage)
	}
	if !outcome.Succeeded() {
		return apperr.Processing(errors.Newf("%s: %s", j.name, outcome.Diagnostic()), failMsg)
	}
	if err := e.outputs.VerifyOutput(j.output.Path); err != nil {
		return apperr.Processing(errors.Wrapf(err, "%s output", j.name), emptyMsg)
	}
	e.mirrorOutput(ctx, j.output)
	return nil
}

func (e *Editor) mirrorOutput(ctx context.Context, out model.Output) {
	if e.mirror == nil {
		return
	}
	key := "outputs/" + filepath.Base(out.Path)
	if err := e.mirror.Mirror(ctx, out.Path, key); err != nil {
		logger.Warn("Failed to mirror output",
			logger.String("path", out.Path), logger.ErrorField(err))
	}
}

func (e *Editor) record(ctx context.Context, kind string, start time.Time, result model.TransformResult, err error) {
	if e.recorder == nil {
		return
	}
	op := &model.Operation{
		Kind:      kind,
		Status:    model.OperationSucceeded,
		ElapsedMS: time.Since(start).Milliseconds(),
		CreatedAt: time.Now(),
	}
	if err != nil {
		op.Status = model.OperationFailed
		op.Error = err.Error()
	} else {
		urls := make([]string, 0, len(result.Outputs))
		for _, name := range outputOrder(kind) {
			if out, ok := result.Outputs[name]; ok {
				urls = append(urls, out.URL)
			}
		}
		op.Outputs = strings.Join(urls, ",")
	}
	// a cancelled request still gets its history row
	if recErr := e.recorder.Record(context.WithoutCancel(ctx), op); recErr != nil {
		logger.Warn("Failed to record operation",
			logger.String("kind", kind), logger.ErrorField(recErr))
	}
}

func outputOrder(kind string) []string {
	switch kind {
	case "separate_vocal_music":
		return []string{"vocal", "music"}
	case "separate_instruments":
		names := make([]string, len(InstrumentBands))
		for i, b := range InstrumentBands {
			names[i] = b.Name
		}
		return names
	default:
		return []string{"output"}
	}
}

func single(kind string, out model.Output) model.TransformResult {
	return model.TransformResult{Operation: kind, Outputs: map[string]model.Output{"output": out}}
}

// Cut trims [start, end) out of input into a new wav output.
func (e *Editor) Cut(ctx context.Context, input string, start, end float64) (result model.TransformResult, err error) {
	const kind = "cut"
	defer func(began time.Time) { e.record(ctx, kind, began, result, err) }(time.Now())

	if err = ValidateCut(start, end); err != nil {
		return model.TransformResult{}, err
	}
	out := e.outputs.NewOutput(kind, "wav")
	j := job{name: kind, output: out, args: CutArgs(input, out.Path, start, end), timeout: e.timeouts.Edit}
	if err = e.render(ctx, j,
		"Failed to cut audio. Please check the audio file format.",
		"Cut operation produced empty file"); err != nil {
		return model.TransformResult{}, err
	}
	logger.Info("Audio cut", logger.String("output", out.URL),
		logger.Float64("start", start), logger.Float64("end", end))
	return single(kind, out), nil
}

// Fade applies a linear fade in or out.
func (e *Editor) Fade(ctx context.Context, input string, fade FadeType, duration float64) (result model.TransformResult, err error) {
	const kind = "fade"
	defer func(began time.Time) { e.record(ctx, kind, began, result, err) }(time.Now())

	if _, err = ValidateFade(string(fade), duration); err != nil {
		return model.TransformResult{}, err
	}
	out := e.outputs.NewOutput("fade_"+string(fade), "wav")
	j := job{name: kind, output: out, args: FadeArgs(input, out.Path, fade, duration), timeout: e.timeouts.Edit}
	if err = e.render(ctx, j,
		"Failed to apply fade effect",
		"Fade operation produced empty file"); err != nil {
		return model.TransformResult{}, err
	}
	logger.Info("Fade applied", logger.String("output", out.URL), logger.String("type", string(fade)))
	return single(kind, out), nil
}

// SplitVocalMusic produces the "vocal" and "music" legs. Both legs run; if either fails
// the operation fails and any output already written stays on disk.
func (e *Editor) SplitVocalMusic(ctx context.Context, input string) (result model.TransformResult, err error) {
	const kind = "separate_vocal_music"
	defer func(began time.Time) { e.record(ctx, kind, began, result, err) }(time.Now())

	vocal := e.outputs.NewOutput("vocal", "wav")
	music := e.outputs.NewOutput("music", "wav")
	jobs := []job{
		{name: "vocal", output: vocal, args: VocalArgs(input, vocal.Path), timeout: e.timeouts.Separate},
		{name: "music", output: music, args: MusicArgs(input, music.Path), timeout: e.timeouts.Separate},
	}
	outputs, err := e.runAll(ctx, jobs, "Failed to separate audio tracks", "Separation produced empty files")
	if err != nil {
		return model.TransformResult{}, err
	}
	logger.Info("Vocal/music separation completed",
		logger.String("vocal", vocal.URL), logger.String("music", music.URL))
	return model.TransformResult{Operation: kind, Outputs: outputs}, nil
}

// SplitInstruments derives the four frequency bands. Every band is attempted and all four
// must succeed.
func (e *Editor) SplitInstruments(ctx context.Context, input string) (result model.TransformResult, err error) {
	const kind = "separate_instruments"
	defer func(began time.Time) { e.record(ctx, kind, began, result, err) }(time.Now())

	jobs := make([]job, 0, len(InstrumentBands))
	for _, band := range InstrumentBands {
		out := e.outputs.NewOutput(band.Name, "wav")
		jobs = append(jobs, job{
			name:    band.Name,
			output:  out,
			args:    BandArgs(input, out.Path, band),
			timeout: e.timeouts.Separate,
		})
	}
	outputs, err := e.runAll(ctx, jobs,
		"Failed to separate some instruments",
		"Failed to separate some instruments")
	if err != nil {
		return model.TransformResult{}, err
	}
	logger.Info("Instrument separation completed", logger.Int("bands", len(outputs)))
	return model.TransformResult{Operation: kind, Outputs: outputs}, nil
}

// runAll attempts every job, counts successes and fails unless all of them succeeded.
// An unavailable engine stops early since no later job can succeed either.
func (e *Editor) runAll(ctx context.Context, jobs []job, failMsg, emptyMsg string) (map[string]model.Output, error) {
	outputs := make(map[string]model.Output, len(jobs))
	var firstErr error
	for _, j := range jobs {
		err := e.render(ctx, j, failMsg, emptyMsg)
		if err != nil {
			logger.Error("Separation leg failed", logger.String("leg", j.name), logger.ErrorField(err))
			if firstErr == nil {
				firstErr = err
			}
			if apperr.HasCode(err, apperr.EngineUnavailableCode) {
				break
			}
			continue
		}
		outputs[j.name] = j.output
	}
	if len(outputs) < len(jobs) {
		if apperr.HasCode(firstErr, apperr.EngineUnavailableCode) {
			return nil, firstErr
		}
		return nil, apperr.Processing(
			errors.Wrapf(firstErr, "%d of %d legs succeeded", len(outputs), len(jobs)), failMsg)
	}
	return outputs, nil
}

// ExportTrack re-encodes one track with its volume and the quality tier's parameters.
func (e *Editor) ExportTrack(ctx context.Context, track model.Track, format, quality string) (result model.TransformResult, err error) {
	const kind = "export_track"
	defer func(began time.Time) { e.record(ctx, kind, began, result, err) }(time.Now())

	out, err := e.export(ctx, "track", track, format, quality, "Failed to export track")
	if err != nil {
		return model.TransformResult{}, err
	}
	logger.Info("Track exported", logger.String("track", track.ID), logger.String("output", out.URL))
	return single(kind, out), nil
}

// ExportMix exports the first active track only. Real multi-track mixing is not
// implemented; the remaining active tracks are ignored.
func (e *Editor) ExportMix(ctx context.Context, tracks []model.Track, format, quality string) (result model.TransformResult, err error) {
	const kind = "export_mix"
	defer func(began time.Time) { e.record(ctx, kind, began, result, err) }(time.Now())

	track, err := SelectExportTrack(tracks)
	if err != nil {
		return model.TransformResult{}, err
	}
	out, err := e.export(ctx, "mix", track, format, quality, "Failed to export mix")
	if err != nil {
		return model.TransformResult{}, err
	}
	logger.Info("Mix exported",
		logger.Int("tracks", len(tracks)), logger.String("track", track.ID), logger.String("output", out.URL))
	return single(kind, out), nil
}

func (e *Editor) export(ctx context.Context, prefix string, track model.Track, format, quality, failMsg string) (model.Output, error) {
	if err := ValidateExportFormat(format); err != nil {
		return model.Output{}, err
	}
	if err := ValidateVolume(track.Volume); err != nil {
		return model.Output{}, err
	}
	source := e.outputs.Resolve(track.URL)
	if info, err := os.Stat(source); err != nil || info.IsDir() {
		logger.Warn("Export source missing", logger.String("url", track.URL), logger.String("path", source))
		return model.Output{}, apperr.NotFound("Source track file not found")
	}

	out := e.outputs.NewOutput(prefix, format)
	j := job{
		name:    prefix,
		output:  out,
		args:    ExportArgs(source, out.Path, track.Volume, format, quality),
		timeout: e.timeouts.Export,
	}
	if err := e.render(ctx, j, failMsg, "Export produced empty file"); err != nil {
		return model.Output{}, err
	}
	return out, nil
}
