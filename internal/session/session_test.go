package session

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/sensorview/internal/feed"
	"github.com/ashureev/sensorview/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weatherDoc = `{"weather":[{"main":"Clouds"}],"main":{"temp":281.4},"name":"London"}`

func startUpstream(t *testing.T) (*feed.Server, *httptest.Server) {
	t.Helper()
	upstream := feed.NewServer()
	srv := httptest.NewServer(upstream.Handler())
	t.Cleanup(func() {
		upstream.Hub.CloseAll()
		srv.Close()
	})
	return upstream, srv
}

func newSession(srv *httptest.Server, rec *report.Recorder) *Session {
	return New(Options{
		StreamURL:       "ws" + strings.TrimPrefix(srv.URL, "http") + feed.StreamPath,
		WeatherURL:      srv.URL + feed.WeatherPath,
		PollutionURL:    srv.URL + feed.PollutionPath,
		SnapshotTimeout: 2 * time.Second,
		Reporter:        rec,
	})
}

func TestSessionEndToEnd(t *testing.T) {
	t.Parallel()

	upstream, srv := startUpstream(t)
	require.NoError(t, upstream.SetWeather(json.RawMessage(weatherDoc)))

	rec := &report.Recorder{}
	s := newSession(srv, rec)
	require.NotEmpty(t, s.ID)

	s.Start(context.Background())
	defer s.Close()

	require.Eventually(t, func() bool { return upstream.Hub.Count() == 1 }, 3*time.Second, 10*time.Millisecond)

	ctx := context.Background()
	for _, frame := range []string{
		`{"type":"temperature","sensor_id":2,"time":"2024-03-05T07:15:00Z","value":21.5}`,
		`{"type":"unknown"}`,
		`garbage`,
	} {
		require.Equal(t, 1, upstream.Hub.BroadcastRaw(ctx, []byte(frame)))
	}

	require.Eventually(t, func() bool {
		return s.State.Snapshot().TempSensor2 != nil
	}, 3*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return s.State.Snapshot().WeatherData != nil && len(rec.BySource(report.SourcePollution)) == 1
	}, 3*time.Second, 10*time.Millisecond)

	snap := s.State.Snapshot()
	data, err := json.Marshal(snap.TempSensor2)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"temperature","sensor_id":2,"time":"Tue, 05/03/24 07:15","value":21.5}`, string(data))
	assert.Nil(t, snap.TempSensor1)
	assert.Nil(t, snap.OutdoorSensor)
	assert.Nil(t, snap.IndoorSensor)
	assert.Equal(t, weatherDoc, string(snap.WeatherData))
	assert.Nil(t, snap.PollutionData, "pollution endpoint is down")

	require.Eventually(t, func() bool {
		return len(rec.BySource(report.SourceStream)) == 1
	}, 3*time.Second, 10*time.Millisecond)
}

func TestSessionSnapshotsDownStreamStillWorks(t *testing.T) {
	t.Parallel()

	upstream, srv := startUpstream(t)
	rec := &report.Recorder{}
	s := newSession(srv, rec)
	s.Start(context.Background())
	defer s.Close()

	require.Eventually(t, func() bool {
		return len(rec.BySource(report.SourceWeather)) == 1 && len(rec.BySource(report.SourcePollution)) == 1
	}, 3*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return upstream.Hub.Count() == 1 }, 3*time.Second, 10*time.Millisecond)

	upstream.Hub.BroadcastRaw(context.Background(), []byte(`{"type":"air","time":1709622900000,"pm10":11}`))
	require.Eventually(t, func() bool {
		return s.State.Snapshot().OutdoorSensor != nil
	}, 3*time.Second, 10*time.Millisecond)

	snap := s.State.Snapshot()
	assert.Nil(t, snap.WeatherData)
	assert.Nil(t, snap.PollutionData)
	assert.Equal(t, "Tue, 05/03/24 07:15", snap.OutdoorSensor.Time)
}

func TestSessionCloseTearsDown(t *testing.T) {
	t.Parallel()

	upstream, srv := startUpstream(t)
	s := newSession(srv, &report.Recorder{})
	s.Start(context.Background())
	s.Start(context.Background())

	require.Eventually(t, func() bool { return upstream.Hub.Count() == 1 }, 3*time.Second, 10*time.Millisecond)

	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}

	select {
	case <-s.Done():
	default:
		t.Fatal("Done should be closed after Close")
	}
	assert.ErrorIs(t, s.Err(), context.Canceled)
	require.Eventually(t, func() bool { return upstream.Hub.Count() == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestSessionEndsWhenUpstreamCloses(t *testing.T) {
	t.Parallel()

	upstream, srv := startUpstream(t)
	s := newSession(srv, &report.Recorder{})
	s.Start(context.Background())
	defer s.Close()

	require.Eventually(t, func() bool { return upstream.Hub.Count() == 1 }, 3*time.Second, 10*time.Millisecond)
	upstream.Hub.CloseAll()

	select {
	case <-s.Done():
		assert.NoError(t, s.Err())
	case <-time.After(5 * time.Second):
		t.Fatal("session did not observe upstream close")
	}
}

func TestSessionReloadRefetchesSnapshots(t *testing.T) {
	t.Parallel()

	upstream, srv := startUpstream(t)
	rec := &report.Recorder{}
	s := newSession(srv, rec)
	s.Start(context.Background())
	defer s.Close()

	require.Eventually(t, func() bool {
		return len(rec.BySource(report.SourceWeather)) == 1
	}, 3*time.Second, 10*time.Millisecond)
	assert.Nil(t, s.State.Snapshot().WeatherData)

	require.NoError(t, upstream.SetWeather(json.RawMessage(weatherDoc)))
	s.Reload(context.Background())

	assert.Equal(t, weatherDoc, string(s.State.Snapshot().WeatherData))
}
