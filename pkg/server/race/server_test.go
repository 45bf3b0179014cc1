//nolint:funlen // ok for tests
package race

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/server/auth"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/strategy"
)

func newTestServer(opts ...Option) *httptest.Server {
	mux := http.NewServeMux()
	NewServer(opts...).Register(mux)
	return httptest.NewServer(auth.NewMiddleware()(mux))
}

func createRace(t *testing.T, ts *httptest.Server, body string) createRaceResponse {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/races", "application/json",
		strings.NewReader(body))
	if err != nil {
		t.Fatalf("creating race: %v", err)
	}
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var ret createRaceResponse
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&ret))
	return ret
}

func TestCreateRace(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	created := createRace(t, ts, `{"driver":"VER","strategy":"Two-Stop","seed":1}`)
	assert.NotEmpty(t, created.RaceKey)
	assert.Equal(t, "VER", created.Metadata.Driver)
	assert.Equal(t, 58, created.Metadata.TotalLaps)
	assert.Equal(t, "Two-Stop", created.Metadata.RaceStrategy)
	assert.False(t, created.Metadata.Finished)
}

func TestCreateRace_Validation(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	tests := []struct {
		name string
		body string
	}{
		{"unknown driver", `{"driver":"XXX"}`},
		{"unknown strategy", `{"driver":"VER","strategy":"Three-Stop"}`},
		{"garbage body", `{]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/races", "application/json",
				strings.NewReader(tt.body))
			assert.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestFeed_AdvancesOneLapPerCall(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()
	created := createRace(t, ts, `{"driver":"HAM","seed":2}`)

	for lap := 1; lap <= 3; lap++ {
		resp, err := http.Get(ts.URL + "/api/races/" + created.RaceKey + "/feed")
		assert.NoError(t, err)
		var snap model.Snapshot
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
		resp.Body.Close()
		assert.Equal(t, lap, snap.LapNumber)
		assert.Equal(t, "HAM", snap.Driver)
		assert.NotEmpty(t, snap.Strategy.Recommended)
		assert.NotEmpty(t, snap.TireLife.HealthStatus)
	}
}

func TestFeed_TerminalStatus(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()
	created := createRace(t, ts, `{"driver":"VER","seed":3}`)

	for lap := 0; lap < created.Metadata.TotalLaps; lap++ {
		resp, err := http.Get(ts.URL + "/api/races/" + created.RaceKey + "/feed")
		assert.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := http.Get(ts.URL + "/api/races/" + created.RaceKey + "/feed")
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var status raceStatusResponse
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "Race Finished", status.Status)
}

func TestFeed_FallbackOnPredictorFailure(t *testing.T) {
	ts := newTestServer(WithPredictor(strategy.NewFailing(assert.AnError)))
	defer ts.Close()
	created := createRace(t, ts, `{"driver":"VER","seed":4}`)

	resp, err := http.Get(ts.URL + "/api/races/" + created.RaceKey + "/feed")
	assert.NoError(t, err)
	defer resp.Body.Close()
	var snap model.Snapshot
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, strategy.LabelNeutral, snap.Strategy.Recommended)
	assert.InDelta(t, 0.5, snap.Strategy.Confidence[strategy.LabelNeutral], 1e-9)
}

func TestReset_ReplaysRace(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()
	created := createRace(t, ts, `{"driver":"VER","seed":5}`)

	firstLap := func() model.Snapshot {
		resp, err := http.Get(ts.URL + "/api/races/" + created.RaceKey + "/feed")
		assert.NoError(t, err)
		defer resp.Body.Close()
		var snap model.Snapshot
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
		return snap
	}
	before := firstLap()

	resp, err := http.Post(
		ts.URL+"/api/races/"+created.RaceKey+"/reset", "application/json", nil)
	assert.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	after := firstLap()
	assert.Equal(t, before.LapNumber, after.LapNumber)
	assert.Equal(t, before.LapTime, after.LapTime)
}

func TestLaps(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()
	created := createRace(t, ts, `{"driver":"VER","seed":6}`)
	for lap := 0; lap < 4; lap++ {
		resp, err := http.Get(ts.URL + "/api/races/" + created.RaceKey + "/feed")
		assert.NoError(t, err)
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/api/races/" + created.RaceKey + "/laps")
	assert.NoError(t, err)
	var laps []model.Record
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&laps))
	resp.Body.Close()
	assert.Len(t, laps, 4)

	resp, err = http.Get(ts.URL + "/api/races/" + created.RaceKey + "/laps?lap=2")
	assert.NoError(t, err)
	var single model.Record
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&single))
	resp.Body.Close()
	assert.Equal(t, 2, single.LapNumber)

	resp, err = http.Get(ts.URL + "/api/races/" + created.RaceKey + "/laps?lap=99")
	assert.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStream_DeliversLapEvents(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()
	created := createRace(t, ts, `{"driver":"VER","seed":7}`)

	// the stream handler has subscribed once the response headers arrive
	resp, err := http.Get(ts.URL + "/api/races/" + created.RaceKey + "/stream")
	if err != nil {
		t.Fatalf("opening stream: %v", err)
	}
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	feedResp, err := http.Get(ts.URL + "/api/races/" + created.RaceKey + "/feed")
	assert.NoError(t, err)
	feedResp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 1<<16), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var rec model.Record
		assert.NoError(t, json.Unmarshal(
			[]byte(strings.TrimPrefix(line, "data: ")), &rec))
		assert.Equal(t, 1, rec.LapNumber)
		assert.Equal(t, "VER", rec.Driver)
		return
	}
	t.Fatal("no lap event received")
}

func TestUnknownRace(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()
	for _, path := range []string{
		"/api/races/nope", "/api/races/nope/feed", "/api/races/nope/laps",
	} {
		resp, err := http.Get(ts.URL + path)
		assert.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestAdminToken_GuardsMutations(t *testing.T) {
	mux := http.NewServeMux()
	NewServer().Register(mux)
	ts := httptest.NewServer(
		auth.NewMiddleware(auth.WithAdminToken("secret"))(mux))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/races", "application/json",
		strings.NewReader(`{"driver":"VER"}`))
	assert.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/races",
		strings.NewReader(`{"driver":"VER"}`))
	req.Header.Set("api-token", "secret")
	resp, err = http.DefaultClient.Do(req)
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// reads stay open
	listResp, err := http.Get(ts.URL + "/api/races")
	assert.NoError(t, err)
	listResp.Body.Close()
	assert.Equal(t, http.StatusOK, listResp.StatusCode)
}

func TestListRaces(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()
	keys := map[string]bool{}
	for i := 0; i < 3; i++ {
		created := createRace(t, ts,
			fmt.Sprintf(`{"driver":"VER","seed":%d}`, i+1))
		keys[created.RaceKey] = true
	}

	resp, err := http.Get(ts.URL + "/api/races")
	assert.NoError(t, err)
	defer resp.Body.Close()
	var listing map[string]json.RawMessage
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	assert.Len(t, listing, 3)
	for key := range keys {
		assert.Contains(t, listing, key)
	}
}
