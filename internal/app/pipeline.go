package app

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/core"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/domain"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/metrics"
)

// Queue overflow policies.
const (
	OverflowDropOldest = "drop_oldest"
	OverflowReject     = "reject"
)

// Pipeline is the sole entry point for audio. A single consumer drains
// the queue, so every recipient observes transmissions in enqueue order
// and persistence order matches delivery order. The queue is bounded; the
// overflow policy decides whether pressure drops the oldest item or
// rejects the newest.
type Pipeline struct {
	queue    chan *domain.AudioMessage
	overflow string

	state *State
	store core.Store
	trans core.Transcriber
	bcast *Broadcaster
	met   *metrics.Metrics

	// guards the drop-oldest pop+push so two producers cannot interleave
	enqMu sync.Mutex
}

func NewPipeline(state *State, store core.Store, trans core.Transcriber, bcast *Broadcaster, met *metrics.Metrics, size int, overflow string) *Pipeline {
	if size <= 0 {
		size = 1024
	}
	if overflow != OverflowReject {
		overflow = OverflowDropOldest
	}
	return &Pipeline{
		queue:    make(chan *domain.AudioMessage, size),
		overflow: overflow,
		state:    state,
		store:    store,
		trans:    trans,
		bcast:    bcast,
		met:      met,
	}
}

// Enqueue accepts one transmission. Returns false when the overflow
// policy discarded it.
func (p *Pipeline) Enqueue(m *domain.AudioMessage) bool {
	p.enqMu.Lock()
	defer p.enqMu.Unlock()
	select {
	case p.queue <- m:
		p.met.AudioEnqueued.Inc()
		p.met.QueueDepth.Set(float64(len(p.queue)))
		return true
	default:
	}
	if p.overflow == OverflowReject {
		p.met.AudioDroppedFull.Inc()
		log.Warn().Str("module", "app.pipeline").Msg("queue full, rejecting newest")
		return false
	}
	select {
	case <-p.queue:
		p.met.AudioDroppedFull.Inc()
		log.Warn().Str("module", "app.pipeline").Msg("queue full, dropped oldest")
	default:
	}
	select {
	case p.queue <- m:
		p.met.AudioEnqueued.Inc()
		p.met.QueueDepth.Set(float64(len(p.queue)))
		return true
	default:
		p.met.AudioDroppedFull.Inc()
		return false
	}
}

// Run drains the queue until ctx is canceled, then processes whatever is
// already queued before returning. Items never abort the loop.
func (p *Pipeline) Run(ctx context.Context) {
	log.Info().Str("module", "app.pipeline").Int("capacity", cap(p.queue)).Str("overflow", p.overflow).Msg("pipeline consumer started")
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case m := <-p.queue:
					p.process(context.Background(), m)
				default:
					log.Info().Str("module", "app.pipeline").Msg("pipeline consumer stopped")
					return
				}
			}
		case m := <-p.queue:
			p.process(ctx, m)
			p.met.QueueDepth.Set(float64(len(p.queue)))
		}
	}
}

// process runs one item through transcribe → persist → fan-out. Any
// failure is contained to the item.
func (p *Pipeline) process(ctx context.Context, m *domain.AudioMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			p.met.PipelineItemErrors.Inc()
			log.Error().Any("panic", rec).Str("module", "app.pipeline").Msg("pipeline item panicked, continuing")
		}
	}()

	// Global mute gates the whole pipeline: nothing persisted, nothing
	// delivered, for anyone.
	if p.state.GlobalMute() {
		p.met.AudioDroppedMuted.Inc()
		return
	}

	if m.Transcript == "" || m.Transcript == domain.TranscriptPending {
		m.Transcript = p.transcribe(ctx, m.Payload)
	}
	if m.Timestamp == "" {
		m.Timestamp = m.ReceivedAt.Format("15:04:05")
	}

	if err := p.store.SaveMessage(ctx, m); err != nil {
		p.met.PersistErrors.Inc()
		log.Warn().Err(err).Str("module", "app.pipeline").Str("sender", string(m.SenderPeerID)).Msg("message persist failed, delivering anyway")
	}

	p.bcast.Audio(m)
}

// transcribe decodes the payload and calls the gateway; any failure
// substitutes the fixed sentinel instead of surfacing an error.
func (p *Pipeline) transcribe(ctx context.Context, payload string) string {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		p.met.TranscriptionFailures.Inc()
		log.Warn().Err(err).Str("module", "app.pipeline").Msg("payload decode failed")
		return domain.TranscriptFailed
	}
	text, err := p.trans.Transcribe(ctx, raw)
	if err != nil {
		p.met.TranscriptionFailures.Inc()
		log.Warn().Err(err).Str("module", "app.pipeline").Msg("transcription failed, using sentinel")
		return domain.TranscriptFailed
	}
	p.met.TranscriptionSuccesses.Inc()
	return text
}

// EnqueueAudio builds the pipeline item for a sender's transmission.
// The peer id is computed from the registered session, not trusted from
// the wire. Scope comes from the sender's current group when asGroup.
func (r *Relay) EnqueueAudio(token domain.Token, payload, text, timestamp string, asGroup bool) bool {
	sess, ok := r.State.Snapshot(token)
	if !ok {
		return false
	}
	m := &domain.AudioMessage{
		SenderPeerID: sess.PeerID(),
		SenderToken:  token,
		Payload:      payload,
		Transcript:   text,
		Timestamp:    timestamp,
		ReceivedAt:   time.Now(),
	}
	if asGroup {
		if sess.GroupID == "" {
			return false
		}
		m.GroupID = domain.GroupID(sess.GroupID)
	}
	r.Touch(token)
	return r.Pipe.Enqueue(m)
}
