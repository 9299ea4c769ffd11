package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alfredjeanlab/pgjson/internal/events"
)

const (
	// feedHistory is how many changes are kept for Last-Event-ID replay.
	feedHistory = 1000

	// feedBuffer is the per-subscriber queue. A subscriber that falls this
	// far behind is cut off and has to reconnect with Last-Event-ID.
	feedBuffer = 64

	feedKeepalive = 15 * time.Second
)

// change is one document change as sent on the stream.
type change struct {
	Seq        uint64
	Topic      string
	DocumentID string
	// Collections the change belongs to. An update that moves a document
	// belongs to both the old and the new collection.
	Collections []string
	Payload     []byte
}

// changeFilter selects changes for a subscriber. Zero fields match
// everything.
type changeFilter struct {
	topics      []string // NATS-style subject patterns
	collections []string
	documentID  string
}

// parseChangeFilter reads ?topics=, ?collection= and ?document=. topics and
// collection take comma-separated lists and may be repeated.
func parseChangeFilter(q url.Values) changeFilter {
	return changeFilter{
		topics:      splitList(q["topics"]),
		collections: splitList(q["collection"]),
		documentID:  q.Get("document"),
	}
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

func (f changeFilter) match(c *change) bool {
	if f.documentID != "" && f.documentID != c.DocumentID {
		return false
	}
	if len(f.collections) > 0 && !slices.ContainsFunc(c.Collections, func(name string) bool {
		return slices.Contains(f.collections, name)
	}) {
		return false
	}
	if len(f.topics) == 0 {
		return true
	}
	return slices.ContainsFunc(f.topics, func(p string) bool { return subjectMatches(p, c.Topic) })
}

// subjectMatches reports whether subject matches pattern, where "*" stands
// for one token and a trailing ">" for one or more.
func subjectMatches(pattern, subject string) bool {
	for {
		p, prest, pmore := strings.Cut(pattern, ".")
		s, srest, smore := strings.Cut(subject, ".")
		switch {
		case p == ">":
			return s != ""
		case p != "*" && p != s:
			return false
		case !pmore || !smore:
			return pmore == smore
		}
		pattern, subject = prest, srest
	}
}

// subscriber receives matching changes on ch. ch is closed when the
// subscriber is removed, either by unsubscribe or for lagging.
type subscriber struct {
	filter changeFilter
	ch     chan *change
}

// changeFeed fans document changes out to stream subscribers and keeps the
// latest feedHistory of them for replay.
type changeFeed struct {
	mu      sync.Mutex
	seq     uint64
	history []*change // oldest first
	subs    map[*subscriber]struct{}
}

func newChangeFeed() *changeFeed {
	return &changeFeed{subs: make(map[*subscriber]struct{})}
}

// publish records c under the next sequence number and delivers it.
func (f *changeFeed) publish(c change) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	c.Seq = f.seq
	if len(f.history) == feedHistory {
		copy(f.history, f.history[1:])
		f.history = f.history[:feedHistory-1]
	}
	f.history = append(f.history, &c)

	for sub := range f.subs {
		if !sub.filter.match(&c) {
			continue
		}
		select {
		case sub.ch <- &c:
		default:
			slog.Warn("dropping lagging stream subscriber", "seq", c.Seq)
			f.remove(sub)
		}
	}
	return c.Seq
}

// subscribe registers a subscriber. When since is non-nil it also returns
// the retained matching changes after since; no change can fall between the
// replay and the live channel.
func (f *changeFeed) subscribe(filter changeFilter, since *uint64) (*subscriber, []*change) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var replay []*change
	if since != nil {
		for _, c := range f.history {
			if c.Seq > *since && filter.match(c) {
				replay = append(replay, c)
			}
		}
	}
	sub := &subscriber{filter: filter, ch: make(chan *change, feedBuffer)}
	f.subs[sub] = struct{}{}
	return sub, replay
}

func (f *changeFeed) unsubscribe(sub *subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remove(sub)
}

// remove must be called with mu held.
func (f *changeFeed) remove(sub *subscriber) {
	if _, ok := f.subs[sub]; ok {
		delete(f.subs, sub)
		close(sub.ch)
	}
}

// lastEventID reads the resume point from the Last-Event-ID header, or from
// ?since= for clients that cannot set headers.
func lastEventID(r *http.Request) *uint64 {
	raw := r.Header.Get("Last-Event-ID")
	if raw == "" {
		raw = r.URL.Query().Get("since")
	}
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

// handleEventStream handles GET /v1/events/stream.
func (s *DocumentServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sub, replay := s.feed.subscribe(parseChangeFilter(r.URL.Query()), lastEventID(r))
	defer s.feed.unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	for _, c := range replay {
		writeChange(w, c)
	}
	flusher.Flush()

	keepalive := time.NewTicker(feedKeepalive)
	defer keepalive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case c, ok := <-sub.ch:
			if !ok {
				return
			}
			writeChange(w, c)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeChange(w http.ResponseWriter, c *change) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", c.Seq, c.Topic, c.Payload)
}

// broadcastEvent encodes a document event with the data column's codec, the
// same bytes NATS subscribers receive, and publishes it on the feed.
func (s *DocumentServer) broadcastEvent(topic, docID string, event any) {
	payload, err := s.fields.Data.Codec().Marshal(event)
	if err != nil {
		slog.Warn("failed to encode event for stream", "topic", topic, "document_id", docID, "error", err)
		return
	}
	s.feed.publish(change{
		Topic:       topic,
		DocumentID:  docID,
		Collections: eventCollections(event),
		Payload:     payload,
	})
}

func eventCollections(event any) []string {
	switch e := event.(type) {
	case events.DocumentCreated:
		if e.Document != nil {
			return []string{e.Document.Collection}
		}
	case events.DocumentUpdated:
		if e.Document == nil {
			return nil
		}
		if e.PreviousCollection != "" && e.PreviousCollection != e.Document.Collection {
			return []string{e.Document.Collection, e.PreviousCollection}
		}
		return []string{e.Document.Collection}
	case events.DocumentDeleted:
		return []string{e.Collection}
	}
	return nil
}
