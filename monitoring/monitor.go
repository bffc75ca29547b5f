// Package monitoring serves the profiles, the generated sequences, and the
// state of a bring-up run over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	pprofile "github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/rs/xid"
	"github.com/sarchlab/sdraminit/datarecording"
	"github.com/sarchlab/sdraminit/header"
	"github.com/sarchlab/sdraminit/initseq"
	"github.com/sarchlab/sdraminit/modereg"
	"github.com/sarchlab/sdraminit/monitoring/web"
	"github.com/sarchlab/sdraminit/profile"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Monitor turns the generator into a server that external tools can inspect.
type Monitor struct {
	lock       sync.Mutex
	portNumber int
	profiles   map[string]profile.Profile
	objects    map[string]any
	recording  datarecording.DataReader
	cpuProfile time.Duration

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor that serves every preset profile.
func NewMonitor() *Monitor {
	m := &Monitor{
		profiles:   make(map[string]profile.Profile),
		objects:    make(map[string]any),
		cpuProfile: time.Second,
	}

	for _, name := range profile.PresetNames() {
		m.profiles[name] = profile.MustPreset(name)
	}

	return m
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterProfile makes a profile available under a name. It replaces a
// preset of the same name.
func (m *Monitor) RegisterProfile(name string, p profile.Profile) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.profiles[name] = p
}

// RegisterObject exposes an object, such as a binding or a register space,
// to the object inspector.
func (m *Monitor) RegisterObject(name string, obj any) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.objects[name] = obj
}

// RegisterRecording serves the tables of a recording.
func (m *Monitor) RegisterRecording(r datarecording.DataReader) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.recording = r
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the list of shown bars.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Handler returns the router that serves the monitoring API and the web
// page.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/profiles", m.listProfiles)
	r.HandleFunc("/api/profiles/{name}", m.showProfile)
	r.HandleFunc("/api/sequence/{name}", m.showSequence)
	r.HandleFunc("/api/moderegs/{name}", m.showModeRegisters)
	r.HandleFunc("/api/header/{name}/{format}", m.showHeader)
	r.HandleFunc("/api/objects", m.listObjects)
	r.HandleFunc("/api/object/{name}", m.showObject)
	r.HandleFunc("/api/field/{json}", m.showField)
	r.HandleFunc("/api/trace/{table}", m.showTrace)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(http.FileServer(web.Assets()))

	return r
}

// StartServer starts the monitor as a web server and returns its URL. A zero
// port number picks a random port.
func (m *Monitor) StartServer() (string, error) {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(m.portNumber))
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring SDRAM bring-up with %s\n", url)

	go func() {
		err := http.Serve(listener, m.Handler())
		dieOnErr(err)
	}()

	return url, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(data)
	dieOnErr(err)
}

func httpError(w http.ResponseWriter, code int, format string, args ...any) {
	w.WriteHeader(code)
	_, err := fmt.Fprintf(w, format, args...)
	dieOnErr(err)
}

func (m *Monitor) listProfiles(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	names := make([]string, 0, len(m.profiles))
	for name := range m.profiles {
		names = append(names, name)
	}
	m.lock.Unlock()

	sort.Strings(names)

	writeJSON(w, names)
}

func (m *Monitor) findProfileOr404(
	w http.ResponseWriter,
	r *http.Request,
) (profile.Profile, bool) {
	name := mux.Vars(r)["name"]

	m.lock.Lock()
	p, ok := m.profiles[name]
	m.lock.Unlock()

	if !ok {
		httpError(w, http.StatusNotFound, "Profile %s not found", name)
	}

	return p, ok
}

func (m *Monitor) findSequenceOr404(
	w http.ResponseWriter,
	r *http.Request,
) (initseq.Sequence, bool) {
	p, ok := m.findProfileOr404(w, r)
	if !ok {
		return initseq.Sequence{}, false
	}

	seq, err := initseq.Generate(p)
	if err != nil {
		httpError(w, http.StatusUnprocessableEntity, "Error: %s", err)
		return initseq.Sequence{}, false
	}

	return seq, true
}

func (m *Monitor) showProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := m.findProfileOr404(w, r)
	if !ok {
		return
	}

	writeJSON(w, p)
}

type stepRsp struct {
	Label       string `json:"label"`
	Kind        string `json:"kind"`
	Phase       int    `json:"phase"`
	Address     uint16 `json:"address"`
	BankAddress uint8  `json:"bank_address"`
	Mask        string `json:"mask"`
	PostDelay   int    `json:"post_delay"`
}

type sequenceRsp struct {
	Technology string    `json:"technology"`
	Phases     int       `json:"phases"`
	Steps      []stepRsp `json:"steps"`
}

func (m *Monitor) showSequence(w http.ResponseWriter, r *http.Request) {
	seq, ok := m.findSequenceOr404(w, r)
	if !ok {
		return
	}

	rsp := sequenceRsp{
		Technology: string(seq.Technology()),
		Phases:     seq.Profile.PhaseCount,
		Steps:      make([]stepRsp, 0, len(seq.Steps)),
	}

	for _, s := range seq.Steps {
		rsp.Steps = append(rsp.Steps, stepRsp{
			Label:       s.Label,
			Kind:        s.Kind.String(),
			Phase:       s.Phase,
			Address:     s.Address,
			BankAddress: s.BankAddress,
			Mask:        s.MaskString(),
			PostDelay:   s.PostDelay,
		})
	}

	writeJSON(w, rsp)
}

func (m *Monitor) showModeRegisters(w http.ResponseWriter, r *http.Request) {
	seq, ok := m.findSequenceOr404(w, r)
	if !ok {
		return
	}

	table, _ := modereg.TableFor(seq.Technology())

	rsp := make(map[string]string, len(seq.ModeRegisters))
	for _, i := range seq.ModeRegisters.Indices() {
		name := fmt.Sprintf("MR%d", i)
		if r, ok := table.Register(i); ok {
			name = r.Name
		}

		rsp[name] = fmt.Sprintf("%#x", seq.ModeRegisters.Value(i))
	}

	writeJSON(w, rsp)
}

func (m *Monitor) showHeader(w http.ResponseWriter, r *http.Request) {
	seq, ok := m.findSequenceOr404(w, r)
	if !ok {
		return
	}

	var out string

	switch format := mux.Vars(r)["format"]; format {
	case "c":
		out = header.C(seq)
	case "legacy":
		var err error

		out, err = header.LegacyC([]header.PHY{{Name: "sdram", Sequence: seq}})
		if err != nil {
			httpError(w, http.StatusUnprocessableEntity, "Error: %s", err)
			return
		}
	case "py":
		out = header.Python(seq)
	default:
		httpError(w, http.StatusBadRequest,
			"Invalid format: %s. Allowed values are `c`, `legacy`, and `py`",
			format)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	_, err := w.Write([]byte(out))
	dieOnErr(err)
}

func (m *Monitor) listObjects(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	names := make([]string, 0, len(m.objects))
	for name := range m.objects {
		names = append(names, name)
	}
	m.lock.Unlock()

	sort.Strings(names)

	writeJSON(w, names)
}

func (m *Monitor) findObjectOr404(w http.ResponseWriter, name string) any {
	m.lock.Lock()
	obj, ok := m.objects[name]
	m.lock.Unlock()

	if !ok {
		httpError(w, http.StatusNotFound, "Object %s not found", name)
		return nil
	}

	return obj
}

func (m *Monitor) showObject(w http.ResponseWriter, r *http.Request) {
	obj := m.findObjectOr404(w, mux.Vars(r)["name"])
	if obj == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(obj)
	serializer.SetMaxDepth(1)

	err := serializer.Serialize(w)
	dieOnErr(err)
}

type fieldReq struct {
	ObjectName string `json:"object_name,omitempty"`
	FieldName  string `json:"field_name,omitempty"`
}

func (m *Monitor) showField(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}

	err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req)
	if err != nil {
		httpError(w, http.StatusBadRequest, "Error: %s", err)
		return
	}

	obj := m.findObjectOr404(w, req.ObjectName)
	if obj == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(obj)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		httpError(w, http.StatusBadRequest, "Error: %s", err)
		return
	}

	err = serializer.Serialize(w)
	dieOnErr(err)
}

type traceRsp struct {
	Total int   `json:"total"`
	Rows  []any `json:"rows"`
}

func (m *Monitor) showTrace(w http.ResponseWriter, r *http.Request) {
	m.lock.Lock()
	reader := m.recording
	m.lock.Unlock()

	if reader == nil {
		httpError(w, http.StatusNotFound, "No recording is served")
		return
	}

	limit, offset, err := pageParams(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, "Error: %s", err)
		return
	}

	table := mux.Vars(r)["table"]

	rows, total, err := reader.Query(r.Context(), table,
		datarecording.QueryParams{Limit: limit, Offset: offset})
	if err != nil {
		httpError(w, http.StatusNotFound, "Error: %s", err)
		return
	}

	writeJSON(w, traceRsp{Total: total, Rows: rows})
}

func pageParams(r *http.Request) (limit, offset int, err error) {
	parse := func(key string) (int, error) {
		s := r.URL.Query().Get(key)
		if s == "" {
			return 0, nil
		}

		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid %s: %q", key, s)
		}

		return n, nil
	}

	limit, err = parse("limit")
	if err != nil {
		return 0, 0, err
	}

	offset, err = parse("offset")
	if err != nil {
		return 0, 0, err
	}

	return limit, offset, nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]*ProgressBar, len(m.progressBars))
	copy(bars, m.progressBars)

	for _, b := range bars {
		b.Lock()
	}

	data, err := json.Marshal(bars)

	for _, b := range bars {
		b.Unlock()
	}

	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(data)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memoryInfo, err := proc.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		httpError(w, http.StatusConflict, "Error: %s", err)
		return
	}

	time.Sleep(m.cpuProfile)

	pprof.StopCPUProfile()

	prof, err := pprofile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
