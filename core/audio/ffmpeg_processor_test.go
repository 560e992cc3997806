package audio_test

import (
	"context"
	"time"

	"AudioEditor/core/audio"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("FFmpegEngine", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("succeeds on exit status 0", func() {
		outcome := audio.NewFFmpegEngine("true", 0).Run(ctx, nil, time.Second)

		Expect(outcome.Succeeded()).To(BeTrue())
		Expect(outcome.ExitCode).To(Equal(0))
	})

	It("captures output and the exit status of a failing run", func() {
		outcome := audio.NewFFmpegEngine("sh", 0).Run(ctx,
			[]string{"-c", "echo partial; echo 'Invalid data found' 1>&2; exit 3"}, 5*time.Second)

		Expect(outcome.Succeeded()).To(BeFalse())
		Expect(outcome.ExitCode).To(Equal(3))
		Expect(outcome.TimedOut).To(BeFalse())
		Expect(outcome.NotFound).To(BeFalse())
		Expect(outcome.Stdout).To(ContainSubstring("partial"))
		Expect(outcome.Diagnostic()).To(ContainSubstring("Invalid data found"))
	})

	It("classifies a timeout separately from a failure", func() {
		start := time.Now()
		outcome := audio.NewFFmpegEngine("sleep", 0).Run(ctx, []string{"5"}, 100*time.Millisecond)

		Expect(outcome.Succeeded()).To(BeFalse())
		Expect(outcome.TimedOut).To(BeTrue())
		Expect(outcome.NotFound).To(BeFalse())
		Expect(time.Since(start)).To(BeNumerically("<", 4*time.Second))
	})

	It("stops when the caller's context is cancelled", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		outcome := audio.NewFFmpegEngine("sleep", 0).Run(cancelled, []string{"5"}, time.Minute)

		Expect(outcome.Succeeded()).To(BeFalse())
		Expect(outcome.TimedOut).To(BeFalse())
	})

	DescribeTable("reports a missing executable as not found",
		func(bin string) {
			outcome := audio.NewFFmpegEngine(bin, 0).Run(ctx, []string{"-version"}, time.Second)

			Expect(outcome.NotFound).To(BeTrue())
			Expect(outcome.Succeeded()).To(BeFalse())
		},
		Entry("bare name not on PATH", "ffmpeg-that-does-not-exist"),
		Entry("absolute path", "/nonexistent/bin/ffmpeg"),
	)

	Describe("Available", func() {
		It("is true when the probe exits 0", func() {
			Expect(audio.NewFFmpegEngine("true", time.Second).Available(ctx)).To(BeTrue())
		})

		It("is false when the probe fails", func() {
			Expect(audio.NewFFmpegEngine("false", time.Second).Available(ctx)).To(BeFalse())
		})

		It("is false when the binary is missing", func() {
			Expect(audio.NewFFmpegEngine("/nonexistent/bin/ffmpeg", time.Second).Available(ctx)).To(BeFalse())
		})
	})

	It("returns the first line of the version output", func() {
		version, err := audio.NewFFmpegEngine("echo", time.Second).Version(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal("-version"))
	})
})
