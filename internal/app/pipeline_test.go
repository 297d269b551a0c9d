package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/metrics"
)

func startPipeline(t *testing.T, r *Relay) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go r.Pipe.Run(ctx)
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func TestAudioReachesEveryOtherConnectedSession(t *testing.T) {
	req := require.New(t)
	st := newFakeStore()
	r := newTestRelay(st, nil)
	startPipeline(t, r)

	_, perez := connected(t, r, "12345-Perez-T1", "Perez", "Maletero")
	gomezConn, _ := connected(t, r, "23456-Gomez-T1", "Gomez", "Rampa")
	lopezConn, _ := connected(t, r, "34567-Lopez-T2", "Lopez", "Torre")

	req.True(r.EnqueueAudio(perez, b64("abc"), "hola", "10:00:00", false))

	require.Eventually(t, func() bool {
		return gomezConn.countType("audio") == 1 && lopezConn.countType("audio") == 1
	}, 2*time.Second, 10*time.Millisecond)

	for _, e := range gomezConn.events() {
		if strings.Contains(e, `"type":"audio"`) {
			req.Contains(e, `"sender":"Perez"`)
			req.Contains(e, `"user_id":"Perez_Maletero"`)
		}
	}
	req.Equal(1, st.messageCount(), "exactly one message row persisted")
}

func TestAudioDeliveryPreservesEnqueueOrder(t *testing.T) {
	req := require.New(t)
	r := newTestRelay(nil, nil)
	startPipeline(t, r)

	_, perez := connected(t, r, "12345-Perez-T1", "Perez", "Maletero")
	gomezConn, _ := connected(t, r, "23456-Gomez-T1", "Gomez", "Rampa")

	const n = 20
	for i := 0; i < n; i++ {
		req.True(r.EnqueueAudio(perez, b64(fmt.Sprintf("payload-%02d", i)), "hola", "", false))
	}

	require.Eventually(t, func() bool {
		return gomezConn.countType("audio") == n
	}, 2*time.Second, 10*time.Millisecond)

	last := -1
	for _, e := range gomezConn.events() {
		if !strings.Contains(e, `"type":"audio"`) {
			continue
		}
		var idx int
		for i := 0; i < n; i++ {
			if strings.Contains(e, b64(fmt.Sprintf("payload-%02d", i))) {
				idx = i
				break
			}
		}
		req.Greater(idx, last, "m1 enqueued before m2 must arrive before m2")
		last = idx
	}
}

func TestGlobalMuteDropsAudioEntirely(t *testing.T) {
	req := require.New(t)
	st := newFakeStore()
	r := newTestRelay(st, nil)
	startPipeline(t, r)

	_, perez := connected(t, r, "12345-Perez-T1", "Perez", "Maletero")
	gomezConn, gomez := connected(t, r, "23456-Gomez-T1", "Gomez", "Rampa")

	// Even a personal mute does not matter: nothing is persisted or
	// delivered while the global gate is closed.
	req.True(r.MuteUser(context.Background(), gomez, "Lopez_Torre"))
	r.SetGlobalMute(true)

	req.True(r.EnqueueAudio(perez, b64("abc"), "hola", "", false))
	time.Sleep(200 * time.Millisecond)

	req.Zero(st.messageCount())
	req.Zero(gomezConn.countType("audio"))
}

func TestTranscriptionFailureSubstitutesSentinel(t *testing.T) {
	req := require.New(t)
	st := newFakeStore()
	r := newTestRelay(st, &fakeTranscriber{err: errors.New("stt down")})
	startPipeline(t, r)

	_, perez := connected(t, r, "12345-Perez-T1", "Perez", "Maletero")
	gomezConn, _ := connected(t, r, "23456-Gomez-T1", "Gomez", "Rampa")

	req.True(r.EnqueueAudio(perez, b64("abc"), domain.TranscriptPending, "", false))

	require.Eventually(t, func() bool {
		return gomezConn.countType("audio") == 1
	}, 2*time.Second, 10*time.Millisecond)

	msgs, err := st.ListMessages(context.Background())
	req.NoError(err)
	req.Len(msgs, 1)
	req.Equal(domain.TranscriptFailed, msgs[0].Transcript)
}

func TestMessagePersistFailureStillDelivers(t *testing.T) {
	req := require.New(t)
	st := newFakeStore()
	r := newTestRelay(st, nil)

	_, perez := connected(t, r, "12345-Perez-T1", "Perez", "Maletero")
	gomezConn, _ := connected(t, r, "23456-Gomez-T1", "Gomez", "Rampa")

	st.mu.Lock()
	st.failSaves = true
	st.mu.Unlock()
	startPipeline(t, r)

	req.True(r.EnqueueAudio(perez, b64("abc"), "hola", "", false))
	require.Eventually(t, func() bool {
		return gomezConn.countType("audio") == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMutedScenarioPerezMaletero(t *testing.T) {
	req := require.New(t)
	r := newTestRelay(nil, nil)
	startPipeline(t, r)

	_, perez := connected(t, r, "12345-Perez-T1", "Perez", "Maletero")
	gomezConn, gomez := connected(t, r, "23456-Gomez-T1", "Gomez", "Rampa")
	lopezConn, _ := connected(t, r, "34567-Lopez-T2", "Lopez", "Torre")

	req.True(r.MuteUser(context.Background(), gomez, "Perez_Maletero"))
	req.True(r.EnqueueAudio(perez, b64("abc"), "hola", "", false))

	require.Eventually(t, func() bool {
		return lopezConn.countType("audio") == 1
	}, 2*time.Second, 10*time.Millisecond)
	req.Zero(gomezConn.countType("audio"), "muter receives nothing from the muted sender")
}

func TestQueueOverflowDropOldest(t *testing.T) {
	req := require.New(t)
	reg := prometheus.NewRegistry()
	p := NewPipeline(NewState(), newFakeStore(), &fakeTranscriber{}, nil, metrics.NewWith(reg), 2, OverflowDropOldest)

	req.True(p.Enqueue(&domain.AudioMessage{Payload: "1"}))
	req.True(p.Enqueue(&domain.AudioMessage{Payload: "2"}))
	req.True(p.Enqueue(&domain.AudioMessage{Payload: "3"}))

	first := <-p.queue
	second := <-p.queue
	req.Equal("2", first.Payload, "oldest item was dropped")
	req.Equal("3", second.Payload)
}

func TestQueueOverflowReject(t *testing.T) {
	req := require.New(t)
	reg := prometheus.NewRegistry()
	p := NewPipeline(NewState(), newFakeStore(), &fakeTranscriber{}, nil, metrics.NewWith(reg), 2, OverflowReject)

	req.True(p.Enqueue(&domain.AudioMessage{Payload: "1"}))
	req.True(p.Enqueue(&domain.AudioMessage{Payload: "2"}))
	req.False(p.Enqueue(&domain.AudioMessage{Payload: "3"}))

	first := <-p.queue
	req.Equal("1", first.Payload, "existing items are kept under reject policy")
}
