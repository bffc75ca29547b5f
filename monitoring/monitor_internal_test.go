package monitoring

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/sdraminit/csr"
	"github.com/sarchlab/sdraminit/datarecording"
	"github.com/sarchlab/sdraminit/dfi"
	"github.com/sarchlab/sdraminit/header"
	"github.com/sarchlab/sdraminit/initseq"
	"github.com/sarchlab/sdraminit/profile"
	"github.com/sarchlab/sdraminit/timing"
	"github.com/sarchlab/sdraminit/tracing"
)

func get(h http.Handler, url string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

	return rec
}

func decode(rec *httptest.ResponseRecorder, v any) {
	Expect(json.Unmarshal(rec.Body.Bytes(), v)).To(Succeed())
}

var _ = Describe("Monitor", func() {
	var (
		m *Monitor
		h http.Handler
	)

	BeforeEach(func() {
		m = NewMonitor()
		m.cpuProfile = 10 * time.Millisecond
		h = m.Handler()
	})

	It("should refuse privileged ports", func() {
		Expect(m.WithPortNumber(80).portNumber).To(Equal(0))
		Expect(m.WithPortNumber(8080).portNumber).To(Equal(8080))
	})

	It("should list the preset profiles", func() {
		var names []string

		rec := get(h, "/api/profiles")

		Expect(rec.Code).To(Equal(http.StatusOK))
		decode(rec, &names)
		Expect(names).To(Equal(
			[]string{"ddr3", "ddr4", "ddr4-nodm", "ddr4-rdimm", "sdr"}))
	})

	It("should serve registered profiles", func() {
		p, err := profile.MakeBuilder().WithCL(11).Build()
		Expect(err).NotTo(HaveOccurred())
		m.RegisterProfile("board", p)

		var got profile.Profile
		rec := get(h, "/api/profiles/board")

		Expect(rec.Code).To(Equal(http.StatusOK))
		decode(rec, &got)
		Expect(got.CASLatency).To(Equal(11))
	})

	It("should report unknown profiles", func() {
		Expect(get(h, "/api/profiles/ddr5").Code).To(Equal(http.StatusNotFound))
		Expect(get(h, "/api/sequence/ddr5").Code).To(Equal(http.StatusNotFound))
	})

	It("should serve the sequence of a profile", func() {
		var rsp sequenceRsp

		rec := get(h, "/api/sequence/ddr4")

		Expect(rec.Code).To(Equal(http.StatusOK))
		decode(rec, &rsp)
		Expect(rsp.Technology).To(Equal("DDR4"))
		Expect(rsp.Phases).To(Equal(4))
		Expect(rsp.Steps).To(HaveLen(10))
		Expect(rsp.Steps[9]).To(Equal(stepRsp{
			Label:     "ZQ Calibration",
			Kind:      "command",
			Address:   0x400,
			Mask:      "WE|CS",
			PostDelay: 200,
		}))
	})

	It("should serve the mode registers of a profile", func() {
		var rsp map[string]string

		decode(get(h, "/api/moderegs/ddr4"), &rsp)

		Expect(rsp).To(HaveKeyWithValue("MR0", "0x100"))
		Expect(rsp).To(HaveKeyWithValue("MR1", "0x301"))
	})

	It("should name the mode registers after their table", func() {
		var rsp map[string]string
		decode(get(h, "/api/moderegs/sdr"), &rsp)

		Expect(rsp).To(Equal(map[string]string{"MR": "0x20"}))
	})

	It("should render headers", func() {
		seq, err := initseq.Generate(profile.MustPreset("sdr"))
		Expect(err).NotTo(HaveOccurred())

		rec := get(h, "/api/header/sdr/py")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal(header.Python(seq)))

		rec = get(h, "/api/header/sdr/c")
		Expect(rec.Body.String()).To(Equal(header.C(seq)))

		rec = get(h, "/api/header/sdr/legacy")
		Expect(rec.Body.String()).To(ContainSubstring("sdram_phy_sdram_init_sequence"))

		Expect(get(h, "/api/header/sdr/xml").Code).To(Equal(http.StatusBadRequest))
	})

	It("should inspect registered objects", func() {
		p := profile.MustPreset("ddr4")
		m.RegisterObject("profile", &p)

		var names []string
		decode(get(h, "/api/objects"), &names)
		Expect(names).To(Equal([]string{"profile"}))

		rec := get(h, "/api/object/profile")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.Len()).To(BeNumerically(">", 0))

		Expect(get(h, "/api/object/space").Code).To(Equal(http.StatusNotFound))
	})

	It("should reject malformed field requests", func() {
		Expect(get(h, "/api/field/notjson").Code).To(Equal(http.StatusBadRequest))
	})

	It("should track the progress of a run", func() {
		p := profile.MustPreset("ddr4")
		seq, err := initseq.Generate(p)
		Expect(err).NotTo(HaveOccurred())

		b, err := dfi.NewBindingForProfile(
			csr.LayoutFor(0, p).Hardware(csr.NewSpace(), p.PhaseCount), p)
		Expect(err).NotTo(HaveOccurred())

		runner := initseq.NewRunner(b, timing.NewCycleCounter())
		bar := m.CreateProgressBar("ddr4", uint64(len(seq.Steps)))
		tracing.CollectTrace(runner, bar)

		Expect(runner.Run(seq)).To(Succeed())
		Expect(bar.Done()).To(BeTrue())

		var bars []map[string]any
		decode(get(h, "/api/progress"), &bars)
		Expect(bars).To(HaveLen(1))
		Expect(bars[0]).To(HaveKeyWithValue("finished", 10.0))
		Expect(bars[0]).To(HaveKeyWithValue("in_progress", 0.0))
		Expect(bars[0]).To(HaveKeyWithValue("writes", 38.0))

		m.CompleteProgressBar(bar)
		decode(get(h, "/api/progress"), &bars)
		Expect(bars).To(BeEmpty())
	})

	It("should serve recorded traces", func() {
		Expect(get(h, "/api/trace/exec_info").Code).To(Equal(http.StatusNotFound))

		path := filepath.Join(GinkgoT().TempDir(), "served")
		rec, err := datarecording.Open(path)
		Expect(err).NotTo(HaveOccurred())

		exec := datarecording.NewExecRecorder(rec)
		exec.Start()
		exec.End()
		Expect(rec.Close()).To(Succeed())

		reader, err := datarecording.OpenReader(path)
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		reader.MapTable(datarecording.ExecTable, datarecording.ExecInfo{})
		m.RegisterRecording(reader)

		var rsp struct {
			Total int                      `json:"total"`
			Rows  []datarecording.ExecInfo `json:"rows"`
		}
		decode(get(h, "/api/trace/exec_info?limit=2"), &rsp)
		Expect(rsp.Total).To(Equal(4))
		Expect(rsp.Rows).To(HaveLen(2))
		Expect(rsp.Rows[0].Property).To(Equal("Start Time"))

		rsp.Rows = nil
		decode(get(h, "/api/trace/exec_info?offset=3"), &rsp)
		Expect(rsp.Total).To(Equal(4))
		Expect(rsp.Rows).To(HaveLen(1))
		Expect(rsp.Rows[0].Property).To(Equal("End Time"))

		Expect(get(h, "/api/trace/exec_info?limit=x").Code).
			To(Equal(http.StatusBadRequest))
		Expect(get(h, "/api/trace/unknown").Code).To(Equal(http.StatusNotFound))
	})

	It("should report process resources", func() {
		var rsp resourceRsp

		decode(get(h, "/api/resource"), &rsp)

		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should collect a CPU profile", func() {
		rec := get(h, "/api/profile")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("SampleType"))
	})

	It("should serve the web page", func() {
		rec := get(h, "/")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(HavePrefix("<!DOCTYPE html>"))
	})

	It("should start a server on a random port", func() {
		url, err := m.WithPortNumber(0).StartServer()
		Expect(err).NotTo(HaveOccurred())

		rsp, err := http.Get(url + "/api/profiles")
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		body, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(ContainSubstring("ddr4-nodm"))
	})
})
