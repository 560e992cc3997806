package storage_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"AudioEditor/storage"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Scratch", func() {
	var (
		dir     string
		scratch *storage.Scratch
	)

	BeforeEach(func() {
		dir = filepath.Join(GinkgoT().TempDir(), "temp")
		scratch = storage.NewScratch(dir)
	})

	Describe("ExtFromFilename", func() {
		It("falls back to .wav for a missing filename", func() {
			Expect(storage.ExtFromFilename("")).To(Equal(".wav"))
		})

		It("keeps the original extension", func() {
			Expect(storage.ExtFromFilename("song.flac")).To(Equal(".flac"))
			Expect(storage.ExtFromFilename("dir/take.2.mp3")).To(Equal(".mp3"))
		})

		It("yields no extension for a bare name", func() {
			Expect(storage.ExtFromFilename("recording")).To(Equal(""))
		})
	})

	It("names files input_<uuid><ext> inside the scratch dir", func() {
		f, err := scratch.Acquire(".mp3")
		Expect(err).NotTo(HaveOccurred())
		defer f.Release()

		name := filepath.Base(f.Path())
		Expect(filepath.Dir(f.Path())).To(Equal(dir))
		Expect(name).To(HavePrefix("input_"))
		Expect(name).To(HaveSuffix(".mp3"))
		Expect(len(strings.TrimSuffix(strings.TrimPrefix(name, "input_"), ".mp3"))).To(Equal(36))
	})

	It("writes bytes and removes them on release", func() {
		f, err := scratch.Acquire(".wav")
		Expect(err).NotTo(HaveOccurred())

		n, err := f.Write(strings.NewReader("RIFF...."))
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeEquivalentTo(8))
		Expect(f.Path()).To(BeAnExistingFile())

		f.Release()
		Expect(f.Path()).NotTo(BeAnExistingFile())
	})

	It("tolerates release without a write and repeated releases", func() {
		f, err := scratch.Acquire(".wav")
		Expect(err).NotTo(HaveOccurred())

		Expect(func() {
			f.Release()
			f.Release()
		}).NotTo(Panic())
	})

	It("releases on every exit path when deferred", func() {
		var path string
		failing := func() (err error) {
			f, err := scratch.Acquire(".wav")
			if err != nil {
				return err
			}
			defer f.Release()
			path = f.Path()
			if _, err := f.Write(strings.NewReader("data")); err != nil {
				return err
			}
			panic("engine blew up")
		}

		Expect(func() { _ = failing() }).To(Panic())
		Expect(path).NotTo(BeEmpty())
		Expect(path).NotTo(BeAnExistingFile())
	})

	It("never hands out the same path twice under concurrency", func() {
		const n = 50
		paths := make(chan string, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				f, err := scratch.Acquire(".wav")
				Expect(err).NotTo(HaveOccurred())
				_, err = f.Write(strings.NewReader("x"))
				Expect(err).NotTo(HaveOccurred())
				paths <- f.Path()
			}()
		}
		wg.Wait()
		close(paths)

		seen := map[string]bool{}
		for p := range paths {
			Expect(seen).NotTo(HaveKey(p))
			seen[p] = true
		}
		Expect(seen).To(HaveLen(n))

		entries, err := os.ReadDir(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(n))
	})
})
