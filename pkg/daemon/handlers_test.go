package daemon

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/openbrake/brakectl/pkg/brake"
	"github.com/openbrake/brakectl/pkg/canbus"
	"github.com/openbrake/brakectl/pkg/config"
	"github.com/openbrake/brakectl/pkg/diag"
	"github.com/openbrake/brakectl/pkg/nvm"
)

// setupTestDaemon wires the package-level collaborators against a
// loopback bus and a throwaway calibration file, then runs bootstrap.
func setupTestDaemon(t *testing.T) (*gin.Engine, *canbus.MemoryBus) {
	t.Helper()

	cfg := config.Default()
	cfg.Calibration.Path = filepath.Join(t.TempDir(), "calibration.bin")
	cfg.Calibration.InitialTimingOffset = 0
	conf = cfg

	mem := canbus.NewMemoryBus()
	bus = mem
	cal = nvm.NewStore(cfg.Calibration.Path)
	rec = diag.NewRecorder(bus)
	ctrl = brake.New(diag.Guard(bus, rec), rec, cal)
	bootstrap(cfg)

	return setupRoutes(), mem
}

func do(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeStatus(t *testing.T, body string) brake.Status {
	t.Helper()
	var st brake.Status
	if err := json.Unmarshal([]byte(body), &st); err != nil {
		t.Fatalf("failed to decode status %q: %v", body, err)
	}
	return st
}

func TestApplyAndStatus(t *testing.T) {
	router, mem := setupTestDaemon(t)

	w := do(t, router, http.MethodPost, "/apply", "50")
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /apply = %d: %s", w.Code, w.Body.String())
	}
	st := decodeStatus(t, w.Body.String())
	if st.Mode != brake.ModeActive || st.Pressure != 50 {
		t.Fatalf("apply status = %+v", st)
	}

	if _, ok := mem.Last(); !ok {
		t.Fatal("no status frame on the bus")
	}

	w = do(t, router, http.MethodGet, "/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /status = %d", w.Code)
	}
	st = decodeStatus(t, w.Body.String())
	if st.Pressure != 50 {
		t.Fatalf("status pressure = %d, want 50", st.Pressure)
	}
}

func TestApplyRejectedOverLimit(t *testing.T) {
	router, mem := setupTestDaemon(t)
	mem.Reset()

	w := do(t, router, http.MethodPost, "/apply", "121")
	if w.Code != http.StatusConflict {
		t.Fatalf("POST /apply 121 = %d, want 409", w.Code)
	}
	if frames := mem.Frames(); len(frames) != 0 {
		t.Fatalf("rejected apply sent %d frames", len(frames))
	}

	w = do(t, router, http.MethodGet, "/fault", "")
	if !strings.Contains(w.Body.String(), "pressure-limit") {
		t.Fatalf("fault body = %s", w.Body.String())
	}
}

func TestApplyBadInput(t *testing.T) {
	router, _ := setupTestDaemon(t)

	if w := do(t, router, http.MethodPost, "/apply", "-1"); w.Code != http.StatusBadRequest {
		t.Fatalf("POST /apply -1 = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/apply", "70000"); w.Code != http.StatusBadRequest {
		t.Fatalf("POST /apply 70000 = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/apply", "not-a-number"); w.Code != http.StatusBadRequest {
		t.Fatalf("POST /apply garbage = %d, want 400", w.Code)
	}
}

func TestInterlockFlow(t *testing.T) {
	router, _ := setupTestDaemon(t)

	if w := do(t, router, http.MethodPost, "/interlock/disengage", ""); w.Code != http.StatusCreated {
		t.Fatalf("disengage = %d", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/apply", "10"); w.Code != http.StatusConflict {
		t.Fatalf("apply with interlock off = %d, want 409", w.Code)
	}

	// Release is never blocked.
	if w := do(t, router, http.MethodPost, "/release", ""); w.Code != http.StatusCreated {
		t.Fatalf("release = %d", w.Code)
	}

	// Re-init re-engages the interlock and clears the baseline.
	w := do(t, router, http.MethodPost, "/init", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("init = %d", w.Code)
	}
	st := decodeStatus(t, w.Body.String())
	if !st.Interlock || st.Mode != brake.ModeStandby {
		t.Fatalf("status after init = %+v", st)
	}
	if w := do(t, router, http.MethodPost, "/apply", "10"); w.Code != http.StatusCreated {
		t.Fatalf("apply after init = %d: %s", w.Code, w.Body.String())
	}
}

func TestCalibrationEndpoints(t *testing.T) {
	router, _ := setupTestDaemon(t)

	if w := do(t, router, http.MethodPut, "/calibration", "9"); w.Code != http.StatusCreated {
		t.Fatalf("PUT /calibration = %d: %s", w.Code, w.Body.String())
	}

	w := do(t, router, http.MethodGet, "/calibration", "")
	var info struct {
		WorkingOffset uint16 `json:"workingOffset"`
		StoredOffset  uint16 `json:"storedOffset"`
		Signature     uint32 `json:"signature"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode calibration: %v", err)
	}
	if info.WorkingOffset != 9 || info.StoredOffset != 9 {
		t.Fatalf("calibration = %+v", info)
	}
	if info.Signature != nvm.Signature {
		t.Fatalf("signature = %#x, want %#x", info.Signature, nvm.Signature)
	}

	// The stored offset is also the working offset for the next apply.
	w = do(t, router, http.MethodPost, "/apply", "50")
	if st := decodeStatus(t, w.Body.String()); st.Pressure != 59 {
		t.Fatalf("pressure = %d, want 59", st.Pressure)
	}
}

func TestDiagnosticsEndpoints(t *testing.T) {
	router, mem := setupTestDaemon(t)

	do(t, router, http.MethodPut, "/temperature", "95")
	mem.Reset()

	w := do(t, router, http.MethodPost, "/diagnostics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("POST /diagnostics = %d", w.Code)
	}
	st := decodeStatus(t, w.Body.String())
	if st.Mode != brake.ModeError {
		t.Fatalf("mode = %v, want error", st.Mode)
	}

	frame, ok := mem.Last()
	if !ok || frame.ID != canbus.IDDiagStatus {
		t.Fatal("expected diag frame on the bus")
	}
	if frame.Data[0] != byte(diag.CodeOverTemp) {
		t.Fatalf("diag frame fault = %d, want over-temp", frame.Data[0])
	}

	// Clearing a non-matching code is a no-op.
	do(t, router, http.MethodDelete, "/fault", "11")
	w = do(t, router, http.MethodGet, "/fault", "")
	if !strings.Contains(w.Body.String(), "over-temp") {
		t.Fatalf("fault after mismatched clear = %s", w.Body.String())
	}

	// Matching clear and full reset both land on none.
	do(t, router, http.MethodDelete, "/fault", "12")
	w = do(t, router, http.MethodGet, "/fault", "")
	if !strings.Contains(w.Body.String(), "none") {
		t.Fatalf("fault after matching clear = %s", w.Body.String())
	}

	rec.Record(diag.CodeBusError)
	if w := do(t, router, http.MethodPost, "/diagnostics/reset", ""); w.Code != http.StatusCreated {
		t.Fatalf("reset = %d", w.Code)
	}
	if rec.LastFault() != diag.CodeNone {
		t.Fatalf("fault after reset = %v", rec.LastFault())
	}
}

func TestTimingOffsetEndpoint(t *testing.T) {
	router, _ := setupTestDaemon(t)

	if w := do(t, router, http.MethodPut, "/timing-offset", "3"); w.Code != http.StatusCreated {
		t.Fatalf("PUT /timing-offset = %d", w.Code)
	}
	w := do(t, router, http.MethodPost, "/apply", "40")
	if st := decodeStatus(t, w.Body.String()); st.Pressure != 43 {
		t.Fatalf("pressure = %d, want 43", st.Pressure)
	}
}
