package recfile

import (
	"bytes"
	"log/slog"
	"sort"

	"replaykit/internal/logging"
	"replaykit/internal/replay"
)

// Packet markers in the decompressed body.
var (
	markerPlayer        = []byte{0x22, 0x07, 0x94, 0x9B, 0xDC}
	markerOperatorSwap  = []byte{0x22, 0xA9, 0x26, 0x0B, 0xE4}
	markerSpawn         = []byte{0xAF, 0x98, 0x99, 0xCA}
	markerTimer         = []byte{0x1F, 0x07, 0xEF, 0xC9}
	markerTimerY7       = []byte{0x1E, 0xF1, 0x11, 0xAB}
	markerMatchFeedback = []byte{0x59, 0x34, 0xE5, 0x8B, 0x04}
	markerDefuserTimer  = []byte{0x22, 0xA9, 0xC8, 0x58, 0xD9}
)

type packetReader func(s *bodyState, c *cursor) error

type listener struct {
	marker []byte
	op     string
	read   packetReader
}

func listenersFor(season Season) []listener {
	timer := listener{markerTimer, "timer packet", readTimer}
	if season.Before(seasonBinaryTimer) {
		timer = listener{markerTimerY7, "timer packet", readTimerY7}
	}
	return []listener{
		{markerPlayer, "player packet", readPlayer},
		{markerOperatorSwap, "operator swap packet", readOperatorSwap},
		{markerSpawn, "site packet", readSite},
		timer,
		{markerMatchFeedback, "match feedback packet", readMatchFeedback},
		{markerDefuserTimer, "defuser packet", readDefuserTimer},
	}
}

// bodyState accumulates the decoded round while packets are dispatched.
type bodyState struct {
	header   *replay.Header
	feedback []replay.MatchUpdate
	logger   *slog.Logger

	// dissect ids are the 4-byte player handles used by later packets.
	dissectIDs  map[[4]byte]int
	playersRead int

	time    float64
	timeRaw string

	planted         bool
	lastDefuserUser int
}

func newBodyState(h *replay.Header, logger *slog.Logger) *bodyState {
	return &bodyState{
		header:          h,
		feedback:        make([]replay.MatchUpdate, 0),
		logger:          logger,
		dissectIDs:      make(map[[4]byte]int),
		lastDefuserUser: -1,
	}
}

type occurrence struct {
	start    int
	listener int
}

// findOccurrences locates every marker occurrence, ordered by offset and
// then by listener registration order.
func findOccurrences(body []byte, listeners []listener) []occurrence {
	var found []occurrence
	for li, l := range listeners {
		for pos := 0; pos < len(body); {
			i := bytes.Index(body[pos:], l.marker)
			if i < 0 {
				break
			}
			found = append(found, occurrence{start: pos + i, listener: li})
			pos += i + 1
		}
	}
	sort.Slice(found, func(a, b int) bool {
		if found[a].start != found[b].start {
			return found[a].start < found[b].start
		}
		return found[a].listener < found[b].listener
	})
	return found
}

// readBody dispatches every packet in the decompressed body. Each reader
// starts immediately after its marker.
func (s *bodyState) readBody(body []byte, season Season) error {
	listeners := listenersFor(season)
	occurrences := findOccurrences(body, listeners)
	s.logger.Debug("dispatching packets",
		logging.Int("body_bytes", len(body)),
		logging.Int("packets", len(occurrences)),
	)
	for _, o := range occurrences {
		l := listeners[o.listener]
		c := &cursor{b: body, off: o.start + len(l.marker), op: l.op}
		if err := l.read(s, c); err != nil {
			return err
		}
	}
	return nil
}

func (s *bodyState) playerIndexByID(id [4]byte) int {
	if i, ok := s.dissectIDs[id]; ok {
		return i
	}
	return -1
}

func (s *bodyState) playerIndexByUsername(username string) int {
	for i, p := range s.header.Players {
		if p.Username == username {
			return i
		}
	}
	return -1
}

func (s *bodyState) update(u replay.MatchUpdate) {
	u.Time = s.timeRaw
	u.TimeInSeconds = s.time
	s.feedback = append(s.feedback, u)
	s.logger.Debug("match update",
		logging.String("type", u.Type.String()),
		logging.String("username", u.Username),
		logging.String("time", u.Time),
	)
}
