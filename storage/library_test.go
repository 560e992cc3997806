package storage_test

import (
	"os"
	"path/filepath"
	"strings"

	"AudioEditor/storage"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Library", func() {
	var (
		root    string
		library *storage.Library
	)

	BeforeEach(func() {
		root = GinkgoT().TempDir()
		library = storage.NewLibrary(filepath.Join(root, "uploads"), filepath.Join(root, "outputs"))
		Expect(storage.EnsureDirs(library.UploadDir(), library.OutputDir())).To(Succeed())
	})

	Describe("SaveUpload", func() {
		It("stores the bytes as <id><ext> and reports a public URL", func() {
			asset, err := library.SaveUpload("take.mp3", strings.NewReader("ID3 audio"))
			Expect(err).NotTo(HaveOccurred())

			Expect(asset.Filename).To(Equal(asset.ID + ".mp3"))
			Expect(asset.URL).To(Equal("/uploads/" + asset.Filename))
			Expect(asset.Size).To(BeEquivalentTo(len("ID3 audio")))
			Expect(asset.Original).To(Equal("take.mp3"))

			content, err := os.ReadFile(filepath.Join(library.UploadDir(), asset.Filename))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal("ID3 audio"))
		})

		It("uses .wav when no filename was sent", func() {
			asset, err := library.SaveUpload("", strings.NewReader("RIFF"))
			Expect(err).NotTo(HaveOccurred())
			Expect(asset.Filename).To(HaveSuffix(".wav"))
		})
	})

	Describe("NewOutput", func() {
		It("allocates <kind>_<uuid>.<ext> under the outputs mount", func() {
			out := library.NewOutput("cut", "wav")

			Expect(filepath.Dir(out.Path)).To(Equal(library.OutputDir()))
			Expect(filepath.Base(out.Path)).To(MatchRegexp(`^cut_[0-9a-f-]{36}\.wav$`))
			Expect(out.URL).To(Equal("/outputs/" + filepath.Base(out.Path)))
			Expect(out.Path).NotTo(BeAnExistingFile())
		})

		It("accepts an extension with a leading dot", func() {
			Expect(library.NewOutput("mix", ".mp3").URL).To(HaveSuffix(".mp3"))
			Expect(library.NewOutput("mix", ".mp3").URL).NotTo(ContainSubstring(".."))
		})
	})

	Describe("VerifyOutput", func() {
		It("rejects a missing file", func() {
			Expect(library.VerifyOutput(filepath.Join(root, "nope.wav"))).NotTo(Succeed())
		})

		It("rejects an empty file", func() {
			path := filepath.Join(library.OutputDir(), "empty.wav")
			Expect(os.WriteFile(path, nil, 0644)).To(Succeed())
			Expect(library.VerifyOutput(path)).NotTo(Succeed())
		})

		It("accepts a non-empty file", func() {
			path := filepath.Join(library.OutputDir(), "full.wav")
			Expect(os.WriteFile(path, []byte("RIFF"), 0644)).To(Succeed())
			Expect(library.VerifyOutput(path)).To(Succeed())
		})
	})

	Describe("Resolve", func() {
		It("substitutes the uploads mount", func() {
			Expect(library.Resolve("/uploads/a.wav")).To(Equal(filepath.Join(library.UploadDir(), "a.wav")))
		})

		It("substitutes the outputs mount", func() {
			Expect(library.Resolve("/outputs/cut_1.wav")).To(Equal(filepath.Join(library.OutputDir(), "cut_1.wav")))
		})

		It("returns anything else unchanged", func() {
			Expect(library.Resolve("relative/take.wav")).To(Equal("relative/take.wav"))
			Expect(library.Resolve("http://example.com/a.wav")).To(Equal("http://example.com/a.wav"))
		})

		It("does not contain traversal inside the mount", func() {
			resolved := library.Resolve("/uploads/../outputs/x.wav")
			Expect(resolved).To(Equal(filepath.Join(library.OutputDir(), "x.wav")))
		})
	})

	It("reports directory existence", func() {
		Expect(storage.DirExists(library.UploadDir())).To(BeTrue())
		Expect(storage.DirExists(filepath.Join(root, "missing"))).To(BeFalse())
	})

	It("formats sizes with binary units", func() {
		Expect(storage.FormatSize(512)).To(Equal("512 B"))
		Expect(storage.FormatSize(1536)).To(Equal("1.5 KB"))
		Expect(storage.FormatSize(5 << 20)).To(Equal("5.0 MB"))
	})
})
