package audio_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"AudioEditor/core/apperr"
	"AudioEditor/core/audio"
	"AudioEditor/core/audio/dummy"
	"AudioEditor/model"
	"AudioEditor/storage"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingMirror struct {
	mutex sync.Mutex
	keys  []string
	err   error
}

func (m *recordingMirror) Mirror(_ context.Context, _ string, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.keys = append(m.keys, key)
	return m.err
}

type recordingRecorder struct {
	mutex sync.Mutex
	ops   []model.Operation
}

func (r *recordingRecorder) Record(_ context.Context, op *model.Operation) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.ops = append(r.ops, *op)
	return nil
}

func expectNonEmptyFile(path string) {
	info, err := os.Stat(path)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	ExpectWithOffset(1, info.Size()).To(BeNumerically(">", 0))
}

func haveCode(code apperr.Code) OmegaMatcher {
	return WithTransform(func(err error) apperr.Code {
		return apperr.From(err, "").Code
	}, Equal(code))
}

var _ = Describe("Editor", func() {
	var (
		ctx      context.Context
		engine   *dummy.Engine
		library  *storage.Library
		mirror   *recordingMirror
		recorder *recordingRecorder
		editor   *audio.Editor
		input    string
	)

	BeforeEach(func() {
		ctx = context.Background()
		root := GinkgoT().TempDir()
		library = storage.NewLibrary(filepath.Join(root, "uploads"), filepath.Join(root, "outputs"))
		Expect(storage.EnsureDirs(library.UploadDir(), library.OutputDir())).To(Succeed())

		input = filepath.Join(root, "input.wav")
		Expect(os.WriteFile(input, []byte("RIFF-input-bytes"), 0644)).To(Succeed())

		engine = dummy.NewDummyEngine()
		mirror = &recordingMirror{}
		recorder = &recordingRecorder{}
	})

	JustBeforeEach(func() {
		editor = audio.NewEditor(engine, library, audio.WithMirror(mirror), audio.WithRecorder(recorder))
	})

	Describe("EnsureEngine", func() {
		It("passes when the probe succeeds", func() {
			Expect(editor.EnsureEngine(ctx)).To(Succeed())
		})

		It("reports EngineUnavailable otherwise", func() {
			engine.Unavailable = true
			Expect(editor.EnsureEngine(ctx)).To(haveCode(apperr.EngineUnavailableCode))
		})
	})

	Describe("Cut", func() {
		It("writes a verified wav output", func() {
			result, err := editor.Cut(ctx, input, 1, 3)
			Expect(err).NotTo(HaveOccurred())

			out := result.Outputs["output"]
			Expect(out.URL).To(MatchRegexp(`^/outputs/cut_[0-9a-f-]{36}\.wav$`))
			expectNonEmptyFile(out.Path)
			Expect(dummy.InputOf(engine.Calls()[0])).To(Equal(input))
		})

		It("rejects an invalid window without running the engine", func() {
			_, err := editor.Cut(ctx, input, 3, 1)
			Expect(err).To(haveCode(apperr.ClientErrorCode))
			Expect(engine.Calls()).To(BeEmpty())
		})

		It("fails when the engine exits non-zero", func() {
			engine.FailWhen = func([]string) bool { return true }

			_, err := editor.Cut(ctx, input, 0, 1)
			Expect(err).To(haveCode(apperr.ProcessingFailureCode))
			Expect(apperr.From(err, "").UserMessage).To(Equal("Failed to cut audio. Please check the audio file format."))
		})

		It("fails when the output is empty", func() {
			engine.EmptyOutput = true

			_, err := editor.Cut(ctx, input, 0, 1)
			Expect(err).To(haveCode(apperr.ProcessingFailureCode))
			Expect(apperr.From(err, "").UserMessage).To(Equal("Cut operation produced empty file"))
		})

		It("maps a missing executable to EngineUnavailable", func() {
			engine.Unavailable = true

			_, err := editor.Cut(ctx, input, 0, 1)
			Expect(err).To(haveCode(apperr.EngineUnavailableCode))
		})
	})

	Describe("Fade", func() {
		It("names the output after the fade direction", func() {
			result, err := editor.Fade(ctx, input, audio.FadeIn, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.URL("output")).To(HavePrefix("/outputs/fade_in_"))
			expectNonEmptyFile(result.Outputs["output"].Path)
		})

		It("rejects a non-positive duration", func() {
			_, err := editor.Fade(ctx, input, audio.FadeOut, 0)
			Expect(err).To(haveCode(apperr.ClientErrorCode))
			Expect(engine.Calls()).To(BeEmpty())
		})
	})

	Describe("SplitVocalMusic", func() {
		It("produces both legs", func() {
			result, err := editor.SplitVocalMusic(ctx, input)
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Outputs).To(HaveKey("vocal"))
			Expect(result.Outputs).To(HaveKey("music"))
			for _, path := range result.Paths() {
				expectNonEmptyFile(path)
			}
		})

		It("fails the whole operation when one leg fails", func() {
			engine.FailWhen = dummy.FilterContains("pan=mono")

			_, err := editor.SplitVocalMusic(ctx, input)
			Expect(err).To(haveCode(apperr.ProcessingFailureCode))
			Expect(engine.Calls()).To(HaveLen(2))
		})
	})

	Describe("SplitInstruments", func() {
		It("produces all four bands", func() {
			result, err := editor.SplitInstruments(ctx, input)
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Outputs).To(HaveLen(4))
			for _, name := range []string{"vocals", "drums", "bass", "other"} {
				Expect(result.URL(name)).To(HavePrefix("/outputs/" + name + "_"))
				expectNonEmptyFile(result.Outputs[name].Path)
			}
		})

		It("still attempts every band when one fails", func() {
			engine.FailWhen = dummy.FilterContains("lowpass=f=250")

			_, err := editor.SplitInstruments(ctx, input)
			Expect(err).To(haveCode(apperr.ProcessingFailureCode))
			Expect(apperr.From(err, "").UserMessage).To(Equal("Failed to separate some instruments"))
			Expect(engine.Calls()).To(HaveLen(4))
		})
	})

	Describe("exports", func() {
		var source model.Track

		BeforeEach(func() {
			Expect(os.WriteFile(filepath.Join(library.UploadDir(), "a.wav"), []byte("RIFF-a"), 0644)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(library.UploadDir(), "b.wav"), []byte("RIFF-b"), 0644)).To(Succeed())
			source = model.Track{ID: "a", URL: "/uploads/a.wav", Volume: 0.5}
		})

		It("exports a single track with its volume and tier", func() {
			result, err := editor.ExportTrack(ctx, source, "mp3", "low")
			Expect(err).NotTo(HaveOccurred())

			Expect(result.URL("output")).To(MatchRegexp(`^/outputs/track_[0-9a-f-]{36}\.mp3$`))
			Expect(engine.Calls()[0]).To(ContainElements("volume=0.5", "-b:a", "128k"))
			Expect(dummy.InputOf(engine.Calls()[0])).To(Equal(filepath.Join(library.UploadDir(), "a.wav")))
		})

		It("reports a missing source as not found", func() {
			source.URL = "/uploads/missing.wav"

			_, err := editor.ExportTrack(ctx, source, "mp3", "high")
			Expect(err).To(haveCode(apperr.NotFoundCode))
			Expect(engine.Calls()).To(BeEmpty())
		})

		It("mixes only the first active track", func() {
			tracks := []model.Track{
				{ID: "a", URL: "/uploads/a.wav", Volume: 1},
				{ID: "b", URL: "/uploads/b.wav", Volume: 0.7, Solo: true},
				{ID: "c", URL: "/uploads/missing.wav", Volume: 1, Muted: true},
			}

			result, err := editor.ExportMix(ctx, tracks, "wav", "high")
			Expect(err).NotTo(HaveOccurred())

			Expect(result.URL("output")).To(HavePrefix("/outputs/mix_"))
			Expect(engine.Calls()).To(HaveLen(1))
			Expect(dummy.InputOf(engine.Calls()[0])).To(Equal(filepath.Join(library.UploadDir(), "b.wav")))
			Expect(engine.Calls()[0]).To(ContainElements("volume=0.7", "-acodec", "pcm_s16le"))

			content, err := os.ReadFile(result.Outputs["output"].Path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal("RIFF-b"))
		})

		It("rejects a mix with no active tracks", func() {
			_, err := editor.ExportMix(ctx, []model.Track{{ID: "a", URL: "/uploads/a.wav", Muted: true}}, "mp3", "high")
			Expect(err).To(haveCode(apperr.ClientErrorCode))
		})

		It("rejects a format that is not a bare extension", func() {
			_, err := editor.ExportTrack(ctx, source, "../../etc", "high")
			Expect(err).To(haveCode(apperr.ClientErrorCode))
		})
	})

	Describe("side effects", func() {
		It("mirrors every verified output under outputs/", func() {
			result, err := editor.SplitVocalMusic(ctx, input)
			Expect(err).NotTo(HaveOccurred())

			Expect(mirror.keys).To(ConsistOf(
				"outputs/"+filepath.Base(result.Outputs["vocal"].Path),
				"outputs/"+filepath.Base(result.Outputs["music"].Path),
			))
		})

		It("ignores mirror failures", func() {
			mirror.err = errors.New("bucket offline")

			_, err := editor.Cut(ctx, input, 0, 1)
			Expect(err).NotTo(HaveOccurred())
		})

		It("records successes and failures", func() {
			result, err := editor.Cut(ctx, input, 0, 1)
			Expect(err).NotTo(HaveOccurred())
			_, err = editor.Cut(ctx, input, 2, 1)
			Expect(err).To(HaveOccurred())

			Expect(recorder.ops).To(HaveLen(2))
			Expect(recorder.ops[0].Kind).To(Equal("cut"))
			Expect(recorder.ops[0].Status).To(Equal(model.OperationSucceeded))
			Expect(recorder.ops[0].Outputs).To(Equal(result.URL("output")))
			Expect(recorder.ops[1].Status).To(Equal(model.OperationFailed))
			Expect(recorder.ops[1].Error).NotTo(BeEmpty())
		})
	})
})
