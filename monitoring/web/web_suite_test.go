package web_test

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/sdraminit/monitoring/web"
)

func TestWeb(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Web Suite")
}

func readIndex(assets http.FileSystem) string {
	f, err := assets.Open("index.html")
	Expect(err).ToNot(HaveOccurred())
	defer f.Close()

	b, err := io.ReadAll(f)
	Expect(err).ToNot(HaveOccurred())

	return string(b)
}

var _ = Describe("Assets", func() {
	AfterEach(func() {
		os.Unsetenv(web.AssetDirEnv)
	})

	It("should serve the embedded page", func() {
		Expect(readIndex(web.Assets())).To(HavePrefix("<!DOCTYPE html>"))
	})

	It("should serve files from the asset directory", func() {
		dir := GinkgoT().TempDir()
		err := os.WriteFile(filepath.Join(dir, "index.html"),
			[]byte("<p>local</p>"), 0o644)
		Expect(err).ToNot(HaveOccurred())
		os.Setenv(web.AssetDirEnv, dir)

		Expect(readIndex(web.Assets())).To(Equal("<p>local</p>"))
	})

	It("should fall back to the embedded page for a missing directory", func() {
		os.Setenv(web.AssetDirEnv, filepath.Join(GinkgoT().TempDir(), "none"))

		Expect(readIndex(web.Assets())).To(HavePrefix("<!DOCTYPE html>"))
	})
})
